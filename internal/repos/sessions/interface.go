// Package sessions stores open blackjack hands, at most one per user.
package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/games/blackjack"
	"github.com/fastprodman/wagerengine/internal/money"
)

var (
	ErrSessionExists   = errs.Conflict("a blackjack game is already in progress")
	ErrSessionNotFound = errs.NotFound("no blackjack game in progress")
)

type Session struct {
	ID        uuid.UUID
	UserID    uint64
	Stake     money.Minor
	Table     blackjack.Table
	StartedAt time.Time
	UpdatedAt time.Time
}

type Sessions interface {
	// Insert fails with ErrSessionExists when the user already has a session.
	Insert(ctx context.Context, s Session) error
	// GetForUpdate reads the user's session and locks it until the
	// transaction ends.
	GetForUpdate(ctx context.Context, userID uint64) (Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID uint64) error
	// ListStale returns users whose session was last touched before cutoff.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error)
}
