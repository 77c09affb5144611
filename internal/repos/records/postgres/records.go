package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/payout"
	"github.com/fastprodman/wagerengine/internal/repos/records"
)

var _ records.Records = (*recordsRepo)(nil)

type recordsRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *recordsRepo {
	return &recordsRepo{db: db}
}

const selectRecord = `
	SELECT game_id, user_id, game_type, rule_set_id, stake_amount, win_amount,
	       outcome, detail, started_at, resolved_at
	FROM game_records
`

func (r *recordsRepo) Append(ctx context.Context, rec records.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO game_records (game_id, user_id, game_type, rule_set_id, stake_amount,
		                          win_amount, outcome, detail, started_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.GameID, rec.UserID, string(rec.GameType), rec.RuleSetID, int64(rec.StakeAmount),
		int64(rec.WinAmount), string(rec.Outcome), []byte(rec.Detail), rec.StartedAt, rec.ResolvedAt)
	if err != nil {
		if pgutils.HasCode(err, pgutils.CodeUniqueViolation) {
			return records.ErrDuplicateRecord
		}

		return fmt.Errorf("insert game record: %w", err)
	}

	return nil
}

func (r *recordsRepo) Get(ctx context.Context, gameID uuid.UUID) (records.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectRecord+` WHERE game_id = $1`, gameID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return records.Record{}, records.ErrRecordNotFound
		}

		return records.Record{}, fmt.Errorf("get game record: %w", err)
	}

	return rec, nil
}

func (r *recordsRepo) List(ctx context.Context, f records.Filter) ([]records.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecord+`
		WHERE user_id = $1
		  AND ($2 = '' OR game_type = $2)
		ORDER BY resolved_at DESC, game_id
		LIMIT $3 OFFSET $4
	`, f.UserID, string(f.GameType), f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list game records: %w", err)
	}
	defer rows.Close()

	var out []records.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game records: %w", err)
	}

	return out, nil
}

func (r *recordsRepo) CountByRuleSet(ctx context.Context, ruleSetID int64) (int64, error) {
	var n int64

	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM game_records WHERE rule_set_id = $1
	`, ruleSetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count game records: %w", err)
	}

	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (records.Record, error) {
	var (
		rec            records.Record
		gameType       string
		outcome        string
		ruleSetID      sql.NullInt64
		stake, winning int64
		detail         []byte
	)

	err := s.Scan(&rec.GameID, &rec.UserID, &gameType, &ruleSetID, &stake, &winning,
		&outcome, &detail, &rec.StartedAt, &rec.ResolvedAt)
	if err != nil {
		return records.Record{}, err
	}

	rec.GameType = records.GameType(gameType)
	rec.Outcome = payout.Outcome(outcome)
	rec.StakeAmount = money.Minor(stake)
	rec.WinAmount = money.Minor(winning)
	rec.Detail = detail

	if ruleSetID.Valid {
		id := ruleSetID.Int64
		rec.RuleSetID = &id
	}

	return rec, nil
}
