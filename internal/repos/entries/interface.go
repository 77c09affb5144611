package entries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
)

var ErrDuplicateEntry = errs.Conflict("duplicate ledger entry")

type Kind string

const (
	KindStake      Kind = "stake"
	KindPayout     Kind = "payout"
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// Credit reports whether the entry adds to the balance.
func (k Kind) Credit() bool {
	return k == KindPayout || k == KindDeposit
}

// Entry is one balance movement. (Ref, Kind) is unique, so a game can be
// staked and paid at most once.
type Entry struct {
	ID           uuid.UUID   `json:"entry_id"`
	UserID       uint64      `json:"user_id"`
	Ref          string      `json:"ref"`
	Kind         Kind        `json:"kind"`
	Amount       money.Minor `json:"amount"`
	BalanceAfter money.Minor `json:"balance_after"`
	CreatedAt    time.Time   `json:"created_at"`
}

type Entries interface {
	Insert(ctx context.Context, e Entry) error
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]Entry, error)
}
