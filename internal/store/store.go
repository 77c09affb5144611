// Package store is the transactional boundary of the engine. Every
// repository a service touches inside one InTx call commits or rolls back
// together.
package store

import (
	"context"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	"github.com/fastprodman/wagerengine/internal/repos/rulesets"
	"github.com/fastprodman/wagerengine/internal/repos/sessions"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
)

// ErrContention is returned once transient contention outlasts the retries.
var ErrContention = errs.Conflict("the request conflicted with a concurrent update, please retry")

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Wallets() wallets.Wallets
	Entries() entries.Entries
	Records() records.Records
	Sessions() sessions.Sessions
	RuleSets() rulesets.RuleSets
}

// TxFunc is a unit of work. It may run more than once when the store retries
// after contention, so it must not have effects outside tx.
type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	// InTx runs fn in a read-write transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn TxFunc) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn TxFunc) error
}
