// Package memory is a single-process store. One transaction runs at a time
// and writes in place; every table journals its writes so a failed
// transaction is undone.
package memory

import (
	"context"
	"sync"

	"github.com/fastprodman/wagerengine/internal/repos/entries"
	mementries "github.com/fastprodman/wagerengine/internal/repos/entries/memory"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	memrecords "github.com/fastprodman/wagerengine/internal/repos/records/memory"
	"github.com/fastprodman/wagerengine/internal/repos/rulesets"
	memrulesets "github.com/fastprodman/wagerengine/internal/repos/rulesets/memory"
	"github.com/fastprodman/wagerengine/internal/repos/sessions"
	memsessions "github.com/fastprodman/wagerengine/internal/repos/sessions/memory"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
	memwallets "github.com/fastprodman/wagerengine/internal/repos/wallets/memory"
	"github.com/fastprodman/wagerengine/internal/store"
	"github.com/fastprodman/wagerengine/internal/store/memory/journal"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: &state{
		wallets:  memwallets.NewTable(),
		entries:  mementries.NewTable(),
		records:  memrecords.NewTable(),
		sessions: memsessions.NewTable(),
		rulesets: memrulesets.NewTable(),
	}}
}

func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, fn, true)
}

// View runs fn like InTx but always undoes its writes. Views are serialized
// with writers.
func (s *Store) View(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, fn, false)
}

func (s *Store) run(ctx context.Context, fn store.TxFunc, commit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.begin()

	done := false
	defer func() {
		if !done {
			s.state.rollback()
		}
	}()

	if err := fn(ctx, s.state); err != nil {
		return err
	}

	if commit {
		s.state.commit()
		done = true
	}

	return nil
}

type state struct {
	wallets  *memwallets.Table
	entries  *mementries.Table
	records  *memrecords.Table
	sessions *memsessions.Table
	rulesets *memrulesets.Table
}

func (st *state) journals() []*journal.Journal {
	return []*journal.Journal{
		&st.wallets.Journal,
		&st.entries.Journal,
		&st.records.Journal,
		&st.sessions.Journal,
		&st.rulesets.Journal,
	}
}

func (st *state) begin() {
	for _, j := range st.journals() {
		j.Begin()
	}
}

func (st *state) commit() {
	for _, j := range st.journals() {
		j.Commit()
	}
}

func (st *state) rollback() {
	for _, j := range st.journals() {
		j.Rollback()
	}
}

func (st *state) Wallets() wallets.Wallets { return memwallets.New(st.wallets) }

func (st *state) Entries() entries.Entries { return mementries.New(st.entries) }

func (st *state) Records() records.Records { return memrecords.New(st.records) }

func (st *state) Sessions() sessions.Sessions { return memsessions.New(st.sessions) }

func (st *state) RuleSets() rulesets.RuleSets { return memrulesets.New(st.rulesets) }
