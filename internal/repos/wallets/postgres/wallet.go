package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
)

func (r *walletsRepo) Create(ctx context.Context, w wallets.Wallet) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, w.UserID, int64(w.Balance), w.Currency)
	if err != nil {
		return false, fmt.Errorf("insert wallet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *walletsRepo) Get(ctx context.Context, userID uint64) (wallets.Wallet, error) {
	return r.get(ctx, `
		SELECT user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
}

func (r *walletsRepo) GetForUpdate(ctx context.Context, userID uint64) (wallets.Wallet, error) {
	return r.get(ctx, `
		SELECT user_id, balance, currency, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
}

func (r *walletsRepo) get(ctx context.Context, query string, userID uint64) (wallets.Wallet, error) {
	var (
		w       wallets.Wallet
		balance int64
	)

	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&w.UserID, &balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wallets.Wallet{}, wallets.ErrWalletNotFound
		}

		return wallets.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}

	w.Balance = money.Minor(balance)

	return w, nil
}
