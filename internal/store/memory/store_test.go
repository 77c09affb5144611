package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/repos/sessions"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
	"github.com/fastprodman/wagerengine/internal/store"
)

func balance(t *testing.T, s *Store, userID uint64) money.Minor {
	t.Helper()

	var bal money.Minor

	err := s.View(t.Context(), func(ctx context.Context, tx store.Tx) error {
		w, err := tx.Wallets().Get(ctx, userID)
		bal = w.Balance

		return err
	})
	require.NoError(t, err)

	return bal
}

func TestStore_CommitAndRollback(t *testing.T) {
	t.Parallel()

	s := New()

	err := s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Wallets().Create(ctx, wallets.Wallet{UserID: 1, Balance: 100})
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Wallets().DecreaseBalance(ctx, 1, 60); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, money.Minor(100), balance(t, s, 1))
}

func TestStore_RollbackSpansTables(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Wallets().Create(ctx, wallets.Wallet{UserID: 1, Balance: 100})
		return err
	}))

	boom := errors.New("boom")

	err := s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Wallets().DecreaseBalance(ctx, 1, 40); err != nil {
			return err
		}

		err := tx.Entries().Insert(ctx, entries.Entry{ID: uuid.New(), UserID: 1, Ref: "game-1", Kind: entries.KindStake, Amount: 40})
		if err != nil {
			return err
		}

		if err := tx.Sessions().Insert(ctx, sessions.Session{ID: uuid.New(), UserID: 1, Stake: 40}); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, money.Minor(100), balance(t, s, 1))

	require.NoError(t, s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		hist, err := tx.Entries().ListByUser(ctx, 1, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, hist)

		_, err = tx.Sessions().GetForUpdate(ctx, 1)
		assert.ErrorIs(t, err, sessions.ErrSessionNotFound)

		// The rolled back ref is free again.
		return tx.Entries().Insert(ctx, entries.Entry{ID: uuid.New(), UserID: 1, Ref: "game-1", Kind: entries.KindStake, Amount: 40})
	}))
}

func TestStore_PanicRollsBack(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Wallets().Create(ctx, wallets.Wallet{UserID: 1, Balance: 100})
		return err
	}))

	assert.Panics(t, func() {
		_ = s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.Wallets().IncreaseBalance(ctx, 1, 5); err != nil {
				return err
			}

			panic("bug")
		})
	})

	assert.Equal(t, money.Minor(100), balance(t, s, 1))
}

func TestStore_ViewDiscardsWrites(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Wallets().Create(ctx, wallets.Wallet{UserID: 1, Balance: 100})
		return err
	}))

	require.NoError(t, s.View(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Wallets().IncreaseBalance(ctx, 1, 1)
		return err
	}))

	assert.Equal(t, money.Minor(100), balance(t, s, 1))
}

func TestStore_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Wallets().Create(ctx, wallets.Wallet{UserID: 1, Balance: 1000})
		return err
	}))

	var (
		wg                    sync.WaitGroup
		mu                    sync.Mutex
		success, insufficient int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
				_, err := tx.Wallets().DecreaseBalance(ctx, 1, 30)
				return err
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				success++
			case errors.Is(err, wallets.ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 33, success)
	assert.Equal(t, 17, insufficient)
	assert.Equal(t, money.Minor(10), balance(t, s, 1))
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().InTx(ctx, func(context.Context, store.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
