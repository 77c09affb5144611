package entries

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
)

var _ entries.Entries = (*entriesRepo)(nil)

type entriesRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *entriesRepo {
	return &entriesRepo{db: db}
}

func (r *entriesRepo) Insert(ctx context.Context, e entries.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (entry_id, user_id, ref, kind, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.UserID, e.Ref, string(e.Kind), int64(e.Amount), int64(e.BalanceAfter))
	if err != nil {
		if pgutils.HasCode(err, pgutils.CodeUniqueViolation) {
			return entries.ErrDuplicateEntry
		}

		return fmt.Errorf("insert ledger entry: %w", err)
	}

	return nil
}

func (r *entriesRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]entries.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, user_id, ref, kind, amount, balance_after, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, entry_id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []entries.Entry

	for rows.Next() {
		var (
			e             entries.Entry
			kind          string
			amount, after int64
		)

		err = rows.Scan(&e.ID, &e.UserID, &e.Ref, &kind, &amount, &after, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		e.Kind = entries.Kind(kind)
		e.Amount = money.Minor(amount)
		e.BalanceAfter = money.Minor(after)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return out, nil
}
