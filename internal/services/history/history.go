// Package history serves a player's resolved games.
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	"github.com/fastprodman/wagerengine/internal/store"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrUnknownGameType = errs.Validation("game_type must be coinflip, roulette or blackjack")

type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// Games lists the user's games newest first. A zero limit means
// DefaultLimit; larger limits are capped at MaxLimit.
func (s *Service) Games(ctx context.Context, f records.Filter) ([]records.Record, error) {
	switch {
	case f.GameType != "" && !f.GameType.Valid():
		return nil, ErrUnknownGameType
	case f.Limit < 0 || f.Offset < 0:
		return nil, errs.Validation("limit and offset must not be negative")
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}

	var out []records.Record

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Records().List(ctx, f)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	return out, nil
}

// Game returns one of the user's games. Another user's game reads as not
// found.
func (s *Service) Game(ctx context.Context, userID uint64, id uuid.UUID) (records.Record, error) {
	var rec records.Record

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rec, err = tx.Records().Get(ctx, id)

		return err
	})
	if err != nil {
		return records.Record{}, fmt.Errorf("get game: %w", err)
	}

	if rec.UserID != userID {
		return records.Record{}, records.ErrRecordNotFound
	}

	return rec, nil
}
