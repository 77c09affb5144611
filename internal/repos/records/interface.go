// Package records is the insert-only store of resolved games.
package records

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/payout"
)

var (
	ErrRecordNotFound  = errs.NotFound("game record not found")
	ErrDuplicateRecord = errs.Conflict("game already recorded")
)

type GameType string

const (
	GameCoinFlip  GameType = "coinflip"
	GameRoulette  GameType = "roulette"
	GameBlackjack GameType = "blackjack"
)

func (g GameType) Valid() bool {
	return g == GameCoinFlip || g == GameRoulette || g == GameBlackjack
}

type Record struct {
	GameID      uuid.UUID       `json:"game_id"`
	UserID      uint64          `json:"user_id"`
	GameType    GameType        `json:"game_type"`
	RuleSetID   *int64          `json:"rule_set_id"`
	StakeAmount money.Minor     `json:"stake_amount"`
	WinAmount   money.Minor     `json:"win_amount"`
	Outcome     payout.Outcome  `json:"outcome"`
	Detail      json.RawMessage `json:"game_result"`
	StartedAt   time.Time       `json:"started_at"`
	ResolvedAt  time.Time       `json:"resolved_at"`
}

// Filter selects a user's history, newest first. An empty GameType matches
// every game.
type Filter struct {
	UserID   uint64
	GameType GameType
	Limit    int
	Offset   int
}

type Records interface {
	Append(ctx context.Context, r Record) error
	Get(ctx context.Context, gameID uuid.UUID) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	CountByRuleSet(ctx context.Context, ruleSetID int64) (int64, error)
}

// Sink receives records after their transaction committed. Publish must
// not block the caller.
type Sink interface {
	Publish(r Record)
}

// Discard is a Sink that drops every record.
type Discard struct{}

func (Discard) Publish(Record) {}
