package sessions

import (
	"context"
	"slices"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/sessions"
	"github.com/fastprodman/wagerengine/internal/store/memory/journal"
)

// Table holds one session per user. Rows are detached on every read and
// write, so undo steps can keep them as is.
type Table struct {
	journal.Journal

	rows map[uint64]sessions.Session
}

func NewTable() *Table {
	return &Table{rows: make(map[uint64]sessions.Session)}
}

func (t *Table) remember(userID uint64) {
	prev, had := t.rows[userID]
	t.Record(func() {
		if had {
			t.rows[userID] = prev
		} else {
			delete(t.rows, userID)
		}
	})
}

var _ sessions.Sessions = (*sessionsRepo)(nil)

type sessionsRepo struct{ t *Table }

func New(t *Table) *sessionsRepo {
	return &sessionsRepo{t: t}
}

func (r *sessionsRepo) Insert(_ context.Context, s sessions.Session) error {
	if _, ok := r.t.rows[s.UserID]; ok {
		return sessions.ErrSessionExists
	}

	now := time.Now().UTC()
	s.StartedAt, s.UpdatedAt = now, now
	r.t.remember(s.UserID)
	r.t.rows[s.UserID] = detach(s)

	return nil
}

func (r *sessionsRepo) GetForUpdate(_ context.Context, userID uint64) (sessions.Session, error) {
	s, ok := r.t.rows[userID]
	if !ok {
		return sessions.Session{}, sessions.ErrSessionNotFound
	}

	return detach(s), nil
}

func (r *sessionsRepo) Update(_ context.Context, s sessions.Session) error {
	if _, ok := r.t.rows[s.UserID]; !ok {
		return sessions.ErrSessionNotFound
	}

	s.UpdatedAt = time.Now().UTC()
	r.t.remember(s.UserID)
	r.t.rows[s.UserID] = detach(s)

	return nil
}

func (r *sessionsRepo) Delete(_ context.Context, userID uint64) error {
	if _, ok := r.t.rows[userID]; !ok {
		return sessions.ErrSessionNotFound
	}

	r.t.remember(userID)
	delete(r.t.rows, userID)

	return nil
}

func (r *sessionsRepo) ListStale(_ context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	stale := make([]sessions.Session, 0)

	for _, s := range r.t.rows {
		if s.UpdatedAt.Before(cutoff) {
			stale = append(stale, s)
		}
	}

	slices.SortFunc(stale, func(a, b sessions.Session) int { return a.UpdatedAt.Compare(b.UpdatedAt) })

	users := make([]uint64, 0, min(limit, len(stale)))
	for i := 0; i < len(stale) && i < limit; i++ {
		users = append(users, stale[i].UserID)
	}

	return users, nil
}

// detach copies the card slices so callers never share backing arrays with
// the table.
func detach(s sessions.Session) sessions.Session {
	s.Table.Player = slices.Clone(s.Table.Player)
	s.Table.Dealer = slices.Clone(s.Table.Dealer)
	s.Table.Deck = slices.Clone(s.Table.Deck)

	return s
}
