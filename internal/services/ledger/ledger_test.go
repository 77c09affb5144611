package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/store"
	memstore "github.com/fastprodman/wagerengine/internal/store/memory"
)

func newService(t *testing.T, starting money.Minor) *Service {
	t.Helper()

	return New(memstore.New(), Config{Currency: "VRT", StartingBalance: starting})
}

func TestOpen_IsIdempotent(t *testing.T) {
	t.Parallel()

	s := newService(t, 1000)

	w, err := s.Open(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(1000), w.Balance)
	assert.Equal(t, "VRT", w.Currency)

	_, err = s.Deposit(t.Context(), 7, 500)
	require.NoError(t, err)

	w, err = s.Open(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(1500), w.Balance, "reopening keeps the balance")
}

func TestOpen_RejectsZeroUser(t *testing.T) {
	t.Parallel()

	_, err := newService(t, 0).Open(t.Context(), 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestBalance_UnknownWallet(t *testing.T) {
	t.Parallel()

	_, err := newService(t, 0).Balance(t.Context(), 42)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDepositWithdraw(t *testing.T) {
	t.Parallel()

	s := newService(t, 0)

	bal, err := s.Deposit(t.Context(), 1, 2500)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(2500), bal)

	bal, err = s.Withdraw(t.Context(), 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(1500), bal)

	_, err = s.Withdraw(t.Context(), 1, 1501)
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)

	_, err = s.Deposit(t.Context(), 1, 0)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Withdraw(t.Context(), 1, -5)
	require.ErrorIs(t, err, errs.ErrValidation)

	w, err := s.Balance(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(1500), w.Balance)

	hist, err := s.History(t.Context(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	kinds := []entries.Kind{hist[0].Kind, hist[1].Kind}
	assert.ElementsMatch(t, []entries.Kind{entries.KindDeposit, entries.KindWithdrawal}, kinds)
}

func TestDebit_UnknownWallet(t *testing.T) {
	t.Parallel()

	_, err := newService(t, 0).Debit(t.Context(), 9, 10, "ref")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCredit_DuplicateRef(t *testing.T) {
	t.Parallel()

	s := newService(t, 100)
	_, err := s.Open(t.Context(), 1)
	require.NoError(t, err)

	_, err = s.Credit(t.Context(), 1, 10, "promo-1")
	require.NoError(t, err)

	_, err = s.Credit(t.Context(), 1, 10, "promo-1")
	require.ErrorIs(t, err, entries.ErrDuplicateEntry)

	w, err := s.Balance(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(110), w.Balance, "rejected credit rolled back")
}

func TestStakeAndPayout(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	s := New(st, Config{Currency: "VRT", StartingBalance: 1000})
	game := uuid.New()

	var afterStake, afterPayout money.Minor

	err := st.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		if afterStake, err = s.StakeTx(ctx, tx, 3, 400, game); err != nil {
			return err
		}

		afterPayout, err = PayoutTx(ctx, tx, 3, 780, game)

		return err
	})
	require.NoError(t, err)
	assert.Equal(t, money.Minor(600), afterStake)
	assert.Equal(t, money.Minor(1380), afterPayout)

	// The same game can not be paid twice.
	err = st.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := PayoutTx(ctx, tx, 3, 780, game)
		return err
	})
	require.ErrorIs(t, err, entries.ErrDuplicateEntry)

	// A zero payout reports the balance and writes nothing.
	err = st.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		bal, err := PayoutTx(ctx, tx, 3, 0, uuid.New())
		assert.Equal(t, money.Minor(1380), bal)

		return err
	})
	require.NoError(t, err)

	hist, err := s.History(t.Context(), 3, 10, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestStake_Insufficient(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	s := New(st, Config{StartingBalance: 100})

	err := st.InTx(t.Context(), func(ctx context.Context, tx store.Tx) error {
		_, err := s.StakeTx(ctx, tx, 1, 101, uuid.New())
		return err
	})
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
}

// Concurrent debits never overdraw and never lose an update.
func TestDebit_Concurrent(t *testing.T) {
	t.Parallel()

	s := newService(t, 1000)
	_, err := s.Open(t.Context(), 1)
	require.NoError(t, err)

	const workers = 40

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.Withdraw(context.Background(), 1, 75)

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, errs.ErrInsufficientFunds) {
				fail++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 13, ok)
	assert.Equal(t, workers-13, fail)

	w, err := s.Balance(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(25), w.Balance)
}

func TestLimits_Check(t *testing.T) {
	t.Parallel()

	l := Limits{Min: 100, Max: 5000}

	tests := []struct {
		name  string
		stake money.Minor
		ok    bool
	}{
		{"zero", 0, false},
		{"negative", -1, false},
		{"below min", 99, false},
		{"min", 100, true},
		{"max", 5000, true},
		{"above max", 5001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := l.Check(tt.stake)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errs.ErrValidation)
			}
		})
	}

	assert.NoError(t, Limits{Min: 1}.Check(1<<40), "zero max is unbounded")
}
