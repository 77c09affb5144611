package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/fastprodman/wagerengine/internal/games/blackjack"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/sessions"
)

var _ sessions.Sessions = (*sessionsRepo)(nil)

type sessionsRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *sessionsRepo {
	return &sessionsRepo{db: db}
}

func (r *sessionsRepo) Insert(ctx context.Context, s sessions.Session) error {
	player, dealer, deck, err := encodeTable(s.Table)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO blackjack_sessions (session_id, user_id, stake, player_hand, dealer_hand, deck, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.UserID, int64(s.Stake), player, dealer, deck, string(s.Table.State))
	if err != nil {
		if pgutils.HasCode(err, pgutils.CodeUniqueViolation) {
			return sessions.ErrSessionExists
		}

		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *sessionsRepo) GetForUpdate(ctx context.Context, userID uint64) (sessions.Session, error) {
	var (
		s                    sessions.Session
		stake                int64
		player, dealer, deck []byte
		state                string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, stake, player_hand, dealer_hand, deck, state, started_at, updated_at
		FROM blackjack_sessions
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&s.ID, &s.UserID, &stake, &player, &dealer, &deck, &state, &s.StartedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("get session: %w", err)
	}

	s.Stake = money.Minor(stake)
	s.Table.State = blackjack.State(state)

	if err := decode(player, &s.Table.Player); err != nil {
		return sessions.Session{}, err
	}

	if err := decode(dealer, &s.Table.Dealer); err != nil {
		return sessions.Session{}, err
	}

	if err := decode(deck, &s.Table.Deck); err != nil {
		return sessions.Session{}, err
	}

	return s, nil
}

func (r *sessionsRepo) Update(ctx context.Context, s sessions.Session) error {
	player, dealer, deck, err := encodeTable(s.Table)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE blackjack_sessions
		SET player_hand = $2, dealer_hand = $3, deck = $4, state = $5, updated_at = now()
		WHERE user_id = $1
	`, s.UserID, player, dealer, deck, string(s.Table.State))
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	return expectOne(res)
}

func (r *sessionsRepo) Delete(ctx context.Context, userID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blackjack_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return expectOne(res)
}

func (r *sessionsRepo) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id
		FROM blackjack_sessions
		WHERE updated_at < $1
		ORDER BY updated_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale sessions: %w", err)
	}
	defer rows.Close()

	var users []uint64

	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale session: %w", err)
		}

		users = append(users, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale sessions: %w", err)
	}

	return users, nil
}

func expectOne(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return sessions.ErrSessionNotFound
	}

	return nil
}

func encodeTable(t blackjack.Table) (player, dealer, deck []byte, err error) {
	if player, err = json.Marshal(t.Player); err != nil {
		return nil, nil, nil, fmt.Errorf("encode player hand: %w", err)
	}

	if dealer, err = json.Marshal(t.Dealer); err != nil {
		return nil, nil, nil, fmt.Errorf("encode dealer hand: %w", err)
	}

	if deck, err = json.Marshal(t.Deck); err != nil {
		return nil, nil, nil, fmt.Errorf("encode deck: %w", err)
	}

	return player, dealer, deck, nil
}

func decode[T ~[]cards.Card](b []byte, dst *T) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode cards: %w", err)
	}

	return nil
}
