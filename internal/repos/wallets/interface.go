package wallets

import (
	"context"
	"time"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
)

var (
	ErrInsufficientFunds = errs.New(errs.ErrInsufficientFunds, "insufficient balance")
	ErrWalletNotFound    = errs.NotFound("wallet not found")
)

type Wallet struct {
	UserID    uint64      `json:"user_id"`
	Balance   money.Minor `json:"balance"`
	Currency  string      `json:"currency"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Wallets is bound to one store transaction.
type Wallets interface {
	// Create inserts w unless a wallet for the user exists. created is false
	// when the existing wallet was kept.
	Create(ctx context.Context, w Wallet) (created bool, err error)
	Get(ctx context.Context, userID uint64) (Wallet, error)
	// GetForUpdate reads the wallet and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, userID uint64) (Wallet, error)
	IncreaseBalance(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error)
	// DecreaseBalance never drives the balance below zero; it fails with
	// ErrInsufficientFunds instead.
	DecreaseBalance(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error)
}
