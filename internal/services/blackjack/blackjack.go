// Package blackjack runs persistent blackjack hands on top of the session
// store. The stake is taken when the hand is dealt; the payout, the game
// record and the session delete commit together when the hand ends.
package blackjack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/fastprodman/wagerengine/internal/errs"
	bjgame "github.com/fastprodman/wagerengine/internal/games/blackjack"
	"github.com/fastprodman/wagerengine/internal/infra/tracing"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/payout"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	"github.com/fastprodman/wagerengine/internal/repos/sessions"
	"github.com/fastprodman/wagerengine/internal/rng"
	"github.com/fastprodman/wagerengine/internal/rules"
	"github.com/fastprodman/wagerengine/internal/services/ledger"
	"github.com/fastprodman/wagerengine/internal/store"
)

var (
	ErrNoActiveGame = errs.InvalidState("no active blackjack game")
	ErrHandFinished = errs.InvalidState("the hand is already finished")
)

// sweepBatch caps the sessions expired per sweep.
const sweepBatch = 100

type RuleSource interface {
	Active() *rules.Snapshot
}

// Shuffler yields a fresh shuffled deck per hand.
type Shuffler interface {
	ShuffledDeck() cards.Deck
}

type Deps struct {
	Store  store.Store
	Ledger *ledger.Service
	Rules  RuleSource
	RNG    Shuffler
	Sink   records.Sink
	Limits ledger.Limits
}

type Service struct {
	store  store.Store
	ledger *ledger.Service
	rules  RuleSource
	rng    Shuffler
	sink   records.Sink
	limits ledger.Limits
	now    func() time.Time
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
		now:    time.Now,
	}
}

// Hand is the state of a game after an operation. Result is nil while the
// hand is still active.
type Hand struct {
	GameID  uuid.UUID
	Stake   money.Minor
	Table   bjgame.Table
	Result  *payout.Result
	Balance money.Minor
}

// Active reports whether the player can still act.
func (h Hand) Active() bool {
	return h.Table.State == bjgame.Active
}

// Start debits the stake and deals a new hand. A user with a hand in
// progress gets sessions.ErrSessionExists and keeps both the stake and the
// open hand. A player natural settles at once.
func (s *Service) Start(ctx context.Context, userID uint64, stake money.Minor) (h Hand, err error) {
	ctx, span := tracing.Start(ctx, "blackjack.Start", trace.WithAttributes(
		attribute.Int64("user_id", int64(userID)),
	))
	defer func() { tracing.End(span, err) }()

	if err := s.limits.Check(stake); err != nil {
		return Hand{}, err
	}

	table, err := bjgame.Deal(s.rng.ShuffledDeck())
	if err != nil {
		return Hand{}, fmt.Errorf("deal: %w", err)
	}

	snap := s.rules.Active()
	now := s.now().UTC()

	sess := sessions.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Stake:     stake,
		Table:     *table,
		StartedAt: now,
		UpdatedAt: now,
	}

	var settled *records.Record

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		settled = nil

		// The session row goes in before the stake, so a second hand is
		// refused as a conflict even when the open one took the balance.
		_, err := s.ledger.OpenTx(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("open wallet: %w", err)
		}

		err = tx.Sessions().Insert(ctx, sess)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		bal, err := s.ledger.StakeTx(ctx, tx, userID, stake, sess.ID)
		if err != nil {
			return fmt.Errorf("stake: %w", err)
		}

		h = Hand{GameID: sess.ID, Stake: stake, Table: sess.Table, Balance: bal}

		if !sess.Table.State.Terminal() {
			return nil
		}

		rec, res, bal, err := s.settleTx(ctx, tx, sess, snap)
		if err != nil {
			return err
		}

		h.Result, h.Balance, settled = &res, bal, &rec

		return nil
	})
	if err != nil {
		return Hand{}, fmt.Errorf("start blackjack: %w", err)
	}

	s.published(ctx, settled)

	return h, nil
}

// Hit draws a card for the player. A bust settles the hand as a loss.
func (s *Service) Hit(ctx context.Context, userID uint64) (Hand, error) {
	return s.act(ctx, "blackjack.Hit", userID, (*bjgame.Table).Hit)
}

// Stand plays the dealer out and settles the hand.
func (s *Service) Stand(ctx context.Context, userID uint64) (Hand, error) {
	return s.act(ctx, "blackjack.Stand", userID, (*bjgame.Table).Stand)
}

func (s *Service) act(ctx context.Context, name string, userID uint64, move func(*bjgame.Table) error) (h Hand, err error) {
	ctx, span := tracing.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("user_id", int64(userID)),
	))
	defer func() { tracing.End(span, err) }()

	snap := s.rules.Active()

	var settled *records.Record

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		settled = nil

		sess, err := tx.Sessions().GetForUpdate(ctx, userID)
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return ErrNoActiveGame
		}

		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}

		err = move(&sess.Table)
		if errors.Is(err, bjgame.ErrNotActive) {
			return ErrHandFinished
		}

		if err != nil {
			return fmt.Errorf("play: %w", err)
		}

		h = Hand{GameID: sess.ID, Stake: sess.Stake, Table: sess.Table}

		if !sess.Table.State.Terminal() {
			err = tx.Sessions().Update(ctx, sess)
			if err != nil {
				return fmt.Errorf("update session: %w", err)
			}

			w, err := tx.Wallets().Get(ctx, userID)
			if err != nil {
				return fmt.Errorf("get wallet: %w", err)
			}

			h.Balance = w.Balance

			return nil
		}

		rec, res, bal, err := s.settleTx(ctx, tx, sess, snap)
		if err != nil {
			return err
		}

		h.Result, h.Balance, settled = &res, bal, &rec

		return nil
	})
	if err != nil {
		return Hand{}, fmt.Errorf("%s: %w", name, err)
	}

	s.published(ctx, settled)

	return h, nil
}

// Expire auto-stands hands untouched for longer than idle, so an abandoned
// hand never keeps a debited stake. It returns how many hands it settled.
func (s *Service) Expire(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := s.now().Add(-idle)

	var stale []uint64

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		stale, err = tx.Sessions().ListStale(ctx, cutoff, sweepBatch)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}

	snap := s.rules.Active()
	n := 0

	for _, userID := range stale {
		rec, err := s.expireOne(ctx, userID, cutoff, snap)
		if err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}

			slog.ErrorContext(ctx, "expire blackjack session failed", "user_id", userID, "error", err)

			continue
		}

		if rec != nil {
			n++
			s.published(ctx, rec)
		}
	}

	return n, nil
}

// expireOne settles the user's hand unless it was touched after cutoff or is
// already gone.
func (s *Service) expireOne(ctx context.Context, userID uint64, cutoff time.Time, snap *rules.Snapshot) (*records.Record, error) {
	var settled *records.Record

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		settled = nil

		sess, err := tx.Sessions().GetForUpdate(ctx, userID)
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}

		if !sess.UpdatedAt.Before(cutoff) {
			return nil
		}

		if sess.Table.State == bjgame.Active {
			if err := sess.Table.Stand(); err != nil {
				return fmt.Errorf("stand: %w", err)
			}
		}

		rec, _, _, err := s.settleTx(ctx, tx, sess, snap)
		if err != nil {
			return err
		}

		settled = &rec

		return nil
	})

	return settled, err
}

// RunSweeper calls Expire every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Expire(ctx, idle)
			if err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "blackjack sweep failed", "error", err)
			}

			if n > 0 {
				slog.InfoContext(ctx, "expired idle blackjack hands", "count", n)
			}
		}
	}
}

type detail struct {
	PlayerHand  cards.Hand   `json:"player_hand"`
	DealerHand  cards.Hand   `json:"dealer_hand"`
	PlayerValue int          `json:"player_value"`
	DealerValue int          `json:"dealer_value"`
	State       bjgame.State `json:"state"`
	Natural     bool         `json:"natural"`
}

// settleTx pays the finished hand, records it and closes the session.
func (s *Service) settleTx(ctx context.Context, tx store.Tx, sess sessions.Session, snap *rules.Snapshot) (records.Record, payout.Result, money.Minor, error) {
	res := payout.Blackjack(sess.Stake, sess.Table.Player, sess.Table.Dealer, snap)

	bal, err := ledger.PayoutTx(ctx, tx, sess.UserID, res.Payout, sess.ID)
	if err != nil {
		return records.Record{}, payout.Result{}, 0, fmt.Errorf("payout: %w", err)
	}

	raw, err := json.Marshal(detail{
		PlayerHand:  sess.Table.Player,
		DealerHand:  sess.Table.Dealer,
		PlayerValue: sess.Table.Player.Value(),
		DealerValue: sess.Table.Dealer.Value(),
		State:       sess.Table.State,
		Natural:     res.Natural,
	})
	if err != nil {
		return records.Record{}, payout.Result{}, 0, fmt.Errorf("marshal detail: %w", err)
	}

	rec := records.Record{
		GameID:      sess.ID,
		UserID:      sess.UserID,
		GameType:    records.GameBlackjack,
		StakeAmount: sess.Stake,
		WinAmount:   res.Payout,
		Outcome:     res.Outcome,
		Detail:      raw,
		StartedAt:   sess.StartedAt,
		ResolvedAt:  s.now().UTC(),
	}

	if id, ok := snap.RuleSetID(); ok {
		rec.RuleSetID = &id
	}

	err = tx.Records().Append(ctx, rec)
	if err != nil {
		return records.Record{}, payout.Result{}, 0, fmt.Errorf("append record: %w", err)
	}

	err = tx.Sessions().Delete(ctx, sess.UserID)
	if err != nil {
		return records.Record{}, payout.Result{}, 0, fmt.Errorf("delete session: %w", err)
	}

	return rec, res, bal, nil
}

func (s *Service) published(ctx context.Context, rec *records.Record) {
	if rec == nil {
		return
	}

	s.sink.Publish(*rec)

	slog.InfoContext(ctx, "game settled",
		"user_id", rec.UserID,
		"game_id", rec.GameID,
		"game_type", rec.GameType,
		"outcome", rec.Outcome,
		"stake", rec.StakeAmount,
		"payout", rec.WinAmount,
	)
}
