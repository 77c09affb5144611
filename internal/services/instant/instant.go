// Package instant settles single-step games: coin flip and roulette. Each
// play is one transaction covering the stake, the payout and the game record.
package instant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastprodman/wagerengine/internal/games/coin"
	"github.com/fastprodman/wagerengine/internal/games/roulette"
	"github.com/fastprodman/wagerengine/internal/infra/tracing"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/payout"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	"github.com/fastprodman/wagerengine/internal/rng"
	"github.com/fastprodman/wagerengine/internal/rules"
	"github.com/fastprodman/wagerengine/internal/services/ledger"
	"github.com/fastprodman/wagerengine/internal/store"
)

// RuleSource yields the rule snapshot to resolve against.
type RuleSource interface {
	Active() *rules.Snapshot
}

type Deps struct {
	Store  store.Store
	Ledger *ledger.Service
	Rules  RuleSource
	RNG    *rng.Generator
	Sink   records.Sink
	Limits ledger.Limits
}

type Service struct {
	store  store.Store
	ledger *ledger.Service
	rules  RuleSource
	rng    *rng.Generator
	sink   records.Sink
	limits ledger.Limits
}

func New(d Deps) *Service {
	if d.Sink == nil {
		d.Sink = records.Discard{}
	}

	if d.RNG == nil {
		d.RNG = rng.New(nil)
	}

	return &Service{
		store:  d.Store,
		ledger: d.Ledger,
		rules:  d.Rules,
		rng:    d.RNG,
		sink:   d.Sink,
		limits: d.Limits,
	}
}

type CoinFlipResult struct {
	GameID  uuid.UUID
	Choice  coin.Side
	Outcome coin.Side
	Result  payout.Result
	Balance money.Minor
}

type RouletteResult struct {
	GameID  uuid.UUID
	Bet     roulette.Bet
	Pocket  roulette.Pocket
	Result  payout.Result
	Balance money.Minor
}

func (s *Service) PlayCoinFlip(ctx context.Context, userID uint64, choice coin.Side, stake money.Minor) (res CoinFlipResult, err error) {
	ctx, span := tracing.Start(ctx, "instant.PlayCoinFlip", trace.WithAttributes(
		attribute.Int64("user_id", int64(userID)),
	))
	defer func() { tracing.End(span, err) }()

	if err := s.limits.Check(stake); err != nil {
		return CoinFlipResult{}, err
	}

	snap := s.rules.Active()
	outcome := s.rng.FlipCoin()

	res = CoinFlipResult{
		GameID:  uuid.New(),
		Choice:  choice,
		Outcome: outcome,
		Result:  payout.CoinFlip(stake, choice, outcome, snap),
	}

	detail, err := json.Marshal(map[string]string{
		"choice": choice.Wire(),
		"result": outcome.Wire(),
	})
	if err != nil {
		return CoinFlipResult{}, fmt.Errorf("marshal detail: %w", err)
	}

	rec := newRecord(res.GameID, userID, records.GameCoinFlip, stake, res.Result, snap, detail)

	res.Balance, err = s.settle(ctx, rec)
	if err != nil {
		return CoinFlipResult{}, fmt.Errorf("play coin flip: %w", err)
	}

	return res, nil
}

func (s *Service) PlayRoulette(ctx context.Context, userID uint64, bet roulette.Bet, stake money.Minor) (res RouletteResult, err error) {
	ctx, span := tracing.Start(ctx, "instant.PlayRoulette", trace.WithAttributes(
		attribute.Int64("user_id", int64(userID)),
		attribute.String("bet_type", string(bet.Type)),
	))
	defer func() { tracing.End(span, err) }()

	if err := s.limits.Check(stake); err != nil {
		return RouletteResult{}, err
	}

	snap := s.rules.Active()
	pocket := s.rng.SpinWheel()

	res = RouletteResult{
		GameID: uuid.New(),
		Bet:    bet,
		Pocket: pocket,
		Result: payout.Roulette(stake, bet, pocket, snap),
	}

	detail, err := json.Marshal(map[string]any{
		"bet_type":       bet.Type,
		"bet_value":      bet.Value(),
		"winning_number": pocket,
		"winning_color":  pocket.Color(),
	})
	if err != nil {
		return RouletteResult{}, fmt.Errorf("marshal detail: %w", err)
	}

	rec := newRecord(res.GameID, userID, records.GameRoulette, stake, res.Result, snap, detail)

	res.Balance, err = s.settle(ctx, rec)
	if err != nil {
		return RouletteResult{}, fmt.Errorf("play roulette: %w", err)
	}

	return res, nil
}

// settle stakes, pays and records rec in one transaction and publishes the
// record once it committed.
func (s *Service) settle(ctx context.Context, rec records.Record) (money.Minor, error) {
	var bal money.Minor

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := s.ledger.StakeTx(ctx, tx, rec.UserID, rec.StakeAmount, rec.GameID)
		if err != nil {
			return fmt.Errorf("stake: %w", err)
		}

		bal, err = ledger.PayoutTx(ctx, tx, rec.UserID, rec.WinAmount, rec.GameID)
		if err != nil {
			return fmt.Errorf("payout: %w", err)
		}

		err = tx.Records().Append(ctx, rec)
		if err != nil {
			return fmt.Errorf("append record: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.sink.Publish(rec)

	slog.InfoContext(ctx, "game settled",
		"user_id", rec.UserID,
		"game_id", rec.GameID,
		"game_type", rec.GameType,
		"outcome", rec.Outcome,
		"stake", rec.StakeAmount,
		"payout", rec.WinAmount,
	)

	return bal, nil
}

func newRecord(
	gameID uuid.UUID,
	userID uint64,
	gt records.GameType,
	stake money.Minor,
	res payout.Result,
	snap *rules.Snapshot,
	detail json.RawMessage,
) records.Record {
	now := time.Now().UTC()

	rec := records.Record{
		GameID:      gameID,
		UserID:      userID,
		GameType:    gt,
		StakeAmount: stake,
		WinAmount:   res.Payout,
		Outcome:     res.Outcome,
		Detail:      detail,
		StartedAt:   now,
		ResolvedAt:  now,
	}

	if id, ok := snap.RuleSetID(); ok {
		rec.RuleSetID = &id
	}

	return rec
}
