package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/repos/records"
	"github.com/fastprodman/wagerengine/internal/store/memory/journal"
)

// Table holds game records in insertion order.
type Table struct {
	journal.Journal

	rows  []records.Record
	index map[uuid.UUID]int
}

func NewTable() *Table {
	return &Table{index: make(map[uuid.UUID]int)}
}

var _ records.Records = (*recordsRepo)(nil)

type recordsRepo struct{ t *Table }

func New(t *Table) *recordsRepo {
	return &recordsRepo{t: t}
}

func (r *recordsRepo) Append(_ context.Context, rec records.Record) error {
	if _, dup := r.t.index[rec.GameID]; dup {
		return records.ErrDuplicateRecord
	}

	n := len(r.t.rows)
	r.t.Record(func() {
		delete(r.t.index, rec.GameID)
		clear(r.t.rows[n:])
		r.t.rows = r.t.rows[:n]
	})

	r.t.index[rec.GameID] = n
	r.t.rows = append(r.t.rows, rec)

	return nil
}

func (r *recordsRepo) Get(_ context.Context, gameID uuid.UUID) (records.Record, error) {
	i, ok := r.t.index[gameID]
	if !ok {
		return records.Record{}, records.ErrRecordNotFound
	}

	return r.t.rows[i], nil
}

func (r *recordsRepo) List(_ context.Context, f records.Filter) ([]records.Record, error) {
	var out []records.Record

	skipped := 0

	for i := len(r.t.rows) - 1; i >= 0 && len(out) < f.Limit; i-- {
		rec := r.t.rows[i]
		if rec.UserID != f.UserID || (f.GameType != "" && rec.GameType != f.GameType) {
			continue
		}

		if skipped < f.Offset {
			skipped++
			continue
		}

		out = append(out, rec)
	}

	return out, nil
}

func (r *recordsRepo) CountByRuleSet(_ context.Context, ruleSetID int64) (int64, error) {
	var n int64

	for _, rec := range r.t.rows {
		if rec.RuleSetID != nil && *rec.RuleSetID == ruleSetID {
			n++
		}
	}

	return n, nil
}
