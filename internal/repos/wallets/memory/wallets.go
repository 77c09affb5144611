// Package wallets keeps wallets in process memory. A Table is not safe for
// concurrent use; the memory store serializes access and rolls writes back
// through the table journal.
package wallets

import (
	"context"
	"time"

	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
	"github.com/fastprodman/wagerengine/internal/store/memory/journal"
)

type Table struct {
	journal.Journal

	rows map[uint64]wallets.Wallet
}

func NewTable() *Table {
	return &Table{rows: make(map[uint64]wallets.Wallet)}
}

func (t *Table) put(w wallets.Wallet) {
	prev, had := t.rows[w.UserID]
	t.Record(func() {
		if had {
			t.rows[w.UserID] = prev
		} else {
			delete(t.rows, w.UserID)
		}
	})

	t.rows[w.UserID] = w
}

var _ wallets.Wallets = (*walletsRepo)(nil)

type walletsRepo struct{ t *Table }

func New(t *Table) *walletsRepo {
	return &walletsRepo{t: t}
}

func (r *walletsRepo) Create(_ context.Context, w wallets.Wallet) (bool, error) {
	if _, ok := r.t.rows[w.UserID]; ok {
		return false, nil
	}

	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	r.t.put(w)

	return true, nil
}

func (r *walletsRepo) Get(_ context.Context, userID uint64) (wallets.Wallet, error) {
	w, ok := r.t.rows[userID]
	if !ok {
		return wallets.Wallet{}, wallets.ErrWalletNotFound
	}

	return w, nil
}

// GetForUpdate is Get: the store already holds the only writer lock.
func (r *walletsRepo) GetForUpdate(ctx context.Context, userID uint64) (wallets.Wallet, error) {
	return r.Get(ctx, userID)
}

func (r *walletsRepo) IncreaseBalance(_ context.Context, userID uint64, amount money.Minor) (money.Minor, error) {
	w, ok := r.t.rows[userID]
	if !ok {
		return 0, wallets.ErrWalletNotFound
	}

	w.Balance += amount
	w.UpdatedAt = time.Now().UTC()
	r.t.put(w)

	return w.Balance, nil
}

func (r *walletsRepo) DecreaseBalance(_ context.Context, userID uint64, amount money.Minor) (money.Minor, error) {
	w, ok := r.t.rows[userID]
	if !ok {
		return 0, wallets.ErrWalletNotFound
	}

	if w.Balance < amount {
		return 0, wallets.ErrInsufficientFunds
	}

	w.Balance -= amount
	w.UpdatedAt = time.Now().UTC()
	r.t.put(w)

	return w.Balance, nil
}
