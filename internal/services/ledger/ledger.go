// Package ledger owns every balance movement. Each debit and credit locks
// the wallet row, applies a guarded update and writes a ledger entry in the
// same transaction.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
	"github.com/fastprodman/wagerengine/internal/store"
)

var ErrInvalidAmount = errs.Validation("amount must be greater than zero")

type Config struct {
	Currency        string
	StartingBalance money.Minor
}

type Service struct {
	store store.Store
	cfg   Config
}

func New(st store.Store, cfg Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// Open returns the user's wallet, creating it with the starting balance
// on first use.
func (s *Service) Open(ctx context.Context, userID uint64) (wallets.Wallet, error) {
	var w wallets.Wallet

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		w, err = s.OpenTx(ctx, tx, userID)

		return err
	})
	if err != nil {
		return wallets.Wallet{}, fmt.Errorf("open wallet: %w", err)
	}

	return w, nil
}

// OpenTx is Open bound to tx. The returned wallet is locked.
func (s *Service) OpenTx(ctx context.Context, tx store.Tx, userID uint64) (wallets.Wallet, error) {
	if userID == 0 {
		return wallets.Wallet{}, errs.Validation("user id must be positive")
	}

	_, err := tx.Wallets().Create(ctx, wallets.Wallet{
		UserID:   userID,
		Balance:  s.cfg.StartingBalance,
		Currency: s.cfg.Currency,
	})
	if err != nil {
		return wallets.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}

	w, err := tx.Wallets().GetForUpdate(ctx, userID)
	if err != nil {
		return wallets.Wallet{}, fmt.Errorf("lock wallet: %w", err)
	}

	return w, nil
}

// Balance reads the wallet without locking it.
func (s *Service) Balance(ctx context.Context, userID uint64) (wallets.Wallet, error) {
	var w wallets.Wallet

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		w, err = tx.Wallets().Get(ctx, userID)

		return err
	})
	if err != nil {
		return wallets.Wallet{}, fmt.Errorf("get balance: %w", err)
	}

	return w, nil
}

// Credit adds amount under ref and returns the new balance.
func (s *Service) Credit(ctx context.Context, userID uint64, amount money.Minor, ref string) (money.Minor, error) {
	var bal money.Minor

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		bal, err = CreditTx(ctx, tx, userID, amount, ref, entries.KindDeposit)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	return bal, nil
}

// Debit removes amount under ref and returns the new balance.
func (s *Service) Debit(ctx context.Context, userID uint64, amount money.Minor, ref string) (money.Minor, error) {
	var bal money.Minor

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		bal, err = DebitTx(ctx, tx, userID, amount, ref, entries.KindWithdrawal)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	return bal, nil
}

// Deposit credits the wallet, opening it if needed, under a fresh reference.
func (s *Service) Deposit(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	ref := "deposit:" + uuid.NewString()

	var bal money.Minor

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := s.OpenTx(ctx, tx, userID); err != nil {
			return err
		}

		var err error
		bal, err = CreditTx(ctx, tx, userID, amount, ref, entries.KindDeposit)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}

	return bal, nil
}

// Withdraw debits the wallet under a fresh reference.
func (s *Service) Withdraw(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error) {
	return s.Debit(ctx, userID, amount, "withdrawal:"+uuid.NewString())
}

// History returns the user's ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID uint64, limit, offset int) ([]entries.Entry, error) {
	var out []entries.Entry

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Entries().ListByUser(ctx, userID, limit, offset)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return out, nil
}

// StakeTx takes a game stake inside tx, opening the wallet on first play.
// The game id is the entry reference, so a game is staked at most once.
func (s *Service) StakeTx(ctx context.Context, tx store.Tx, userID uint64, amount money.Minor, gameID uuid.UUID) (money.Minor, error) {
	if _, err := s.OpenTx(ctx, tx, userID); err != nil {
		return 0, err
	}

	return DebitTx(ctx, tx, userID, amount, gameID.String(), entries.KindStake)
}

// PayoutTx credits a game payout inside tx. A zero payout moves nothing and
// returns the current balance. A second payout for the same game fails with
// entries.ErrDuplicateEntry.
func PayoutTx(ctx context.Context, tx store.Tx, userID uint64, amount money.Minor, gameID uuid.UUID) (money.Minor, error) {
	if amount == 0 {
		w, err := tx.Wallets().Get(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("get wallet: %w", err)
		}

		return w.Balance, nil
	}

	return CreditTx(ctx, tx, userID, amount, gameID.String(), entries.KindPayout)
}

// CreditTx runs the credit flow inside tx:
//
// 1) Lock the wallet row.
// 2) Increase the balance.
// 3) Insert the ledger entry (duplicate ref+kind -> ErrDuplicateEntry).
func CreditTx(ctx context.Context, tx store.Tx, userID uint64, amount money.Minor, ref string, kind entries.Kind) (money.Minor, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	// 1) Lock wallet row
	_, err := tx.Wallets().GetForUpdate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("lock wallet: %w", err)
	}

	// 2) Apply the effect
	bal, err := tx.Wallets().IncreaseBalance(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("increase balance: %w", err)
	}

	// 3) Insert ledger entry
	err = insertEntry(ctx, tx, userID, amount, bal, ref, kind)
	if err != nil {
		return 0, err
	}

	return bal, nil
}

// DebitTx runs the debit flow inside tx:
//
// 1) Lock the wallet row.
// 2) Pre-check the locked balance.
// 3) Apply the guarded decrease.
// 4) Insert the ledger entry.
func DebitTx(ctx context.Context, tx store.Tx, userID uint64, amount money.Minor, ref string, kind entries.Kind) (money.Minor, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	// 1) Lock wallet row
	w, err := tx.Wallets().GetForUpdate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("lock wallet: %w", err)
	}

	// 2) Pre-check against locked balance
	if w.Balance < amount {
		return 0, fmt.Errorf("pre-check decrease: %w", wallets.ErrInsufficientFunds)
	}

	// 3) Apply the effect
	bal, err := tx.Wallets().DecreaseBalance(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	// 4) Insert ledger entry
	err = insertEntry(ctx, tx, userID, amount, bal, ref, kind)
	if err != nil {
		return 0, err
	}

	return bal, nil
}

func insertEntry(ctx context.Context, tx store.Tx, userID uint64, amount, bal money.Minor, ref string, kind entries.Kind) error {
	err := tx.Entries().Insert(ctx, entries.Entry{
		ID:           uuid.New(),
		UserID:       userID,
		Ref:          ref,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: bal,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert %s entry: %w", kind, err)
	}

	return nil
}
