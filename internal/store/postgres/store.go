package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	pgentries "github.com/fastprodman/wagerengine/internal/repos/entries/postgres"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	pgrecords "github.com/fastprodman/wagerengine/internal/repos/records/postgres"
	"github.com/fastprodman/wagerengine/internal/repos/rulesets"
	pgrulesets "github.com/fastprodman/wagerengine/internal/repos/rulesets/postgres"
	"github.com/fastprodman/wagerengine/internal/repos/sessions"
	pgsessions "github.com/fastprodman/wagerengine/internal/repos/sessions/postgres"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
	pgwallets "github.com/fastprodman/wagerengine/internal/repos/wallets/postgres"
	"github.com/fastprodman/wagerengine/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store runs units of work in PostgreSQL transactions and retries them on
// serialization failures, deadlocks and lock timeouts.
type Store struct {
	db       *sql.DB
	maxTries uint
}

// New returns a store over db. maxRetries bounds the extra attempts made
// after transient contention.
func New(db *sql.DB, maxRetries uint) *Store {
	return &Store{db: db, maxTries: maxRetries + 1}
}

func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, nil, fn)
}

func (s *Store) View(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn store.TxFunc) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond

	attempt := 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++

		err := pgutils.WithTx(ctx, s.db, opts, func(sqlTx *sql.Tx) error {
			return fn(ctx, tx{q: sqlTx})
		})
		if err == nil {
			return struct{}{}, nil
		}

		if pgutils.IsTransient(err) {
			slog.DebugContext(ctx, "retrying transaction", slog.Int("attempt", attempt), slog.Any("error", err))
			return struct{}{}, err
		}

		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(s.maxTries))
	if err != nil {
		if pgutils.IsTransient(err) {
			return fmt.Errorf("%w: %w", store.ErrContention, err)
		}

		return err
	}

	return nil
}

type tx struct {
	q pgutils.DBTX
}

func (t tx) Wallets() wallets.Wallets { return pgwallets.New(t.q) }

func (t tx) Entries() entries.Entries { return pgentries.New(t.q) }

func (t tx) Records() records.Records { return pgrecords.New(t.q) }

func (t tx) Sessions() sessions.Sessions { return pgsessions.New(t.q) }

func (t tx) RuleSets() rulesets.RuleSets { return pgrulesets.New(t.q) }
