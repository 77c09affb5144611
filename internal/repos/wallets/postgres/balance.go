package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
)

func (r *walletsRepo) IncreaseBalance(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1
		RETURNING balance
	`, userID, int64(amount)).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, wallets.ErrWalletNotFound
		}

		return 0, fmt.Errorf("increase balance: %w", err)
	}

	return money.Minor(balance), nil
}

// DecreaseBalance applies a guarded update. A missing wallet and a short
// balance both leave zero rows; the two are told apart with a second read.
func (r *walletsRepo) DecreaseBalance(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1
		  AND balance >= $2
		RETURNING balance
	`, userID, int64(amount)).Scan(&balance)
	if err == nil {
		return money.Minor(balance), nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	_, gerr := r.Get(ctx, userID)
	if gerr != nil {
		return 0, gerr
	}

	return 0, wallets.ErrInsufficientFunds
}
