package entries

import (
	"context"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/store/memory/journal"
)

type key struct {
	ref  string
	kind entries.Kind
}

// Table holds ledger entries in insertion order.
type Table struct {
	journal.Journal

	rows []entries.Entry
	keys map[key]struct{}
}

func NewTable() *Table {
	return &Table{keys: make(map[key]struct{})}
}

var _ entries.Entries = (*entriesRepo)(nil)

type entriesRepo struct{ t *Table }

func New(t *Table) *entriesRepo {
	return &entriesRepo{t: t}
}

func (r *entriesRepo) Insert(_ context.Context, e entries.Entry) error {
	k := key{ref: e.Ref, kind: e.Kind}
	if _, dup := r.t.keys[k]; dup {
		return entries.ErrDuplicateEntry
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	n := len(r.t.rows)
	r.t.Record(func() {
		delete(r.t.keys, k)
		clear(r.t.rows[n:])
		r.t.rows = r.t.rows[:n]
	})

	r.t.keys[k] = struct{}{}
	r.t.rows = append(r.t.rows, e)

	return nil
}

func (r *entriesRepo) ListByUser(_ context.Context, userID uint64, limit, offset int) ([]entries.Entry, error) {
	var out []entries.Entry

	skipped := 0

	for i := len(r.t.rows) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.t.rows[i]
		if e.UserID != userID {
			continue
		}

		if skipped < offset {
			skipped++
			continue
		}

		out = append(out, e)
	}

	return out, nil
}
