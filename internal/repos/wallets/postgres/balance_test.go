package wallets

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastprodman/wagerengine/internal/infra/pgtestutil"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
)

func seedWallet(t *testing.T, db *sql.DB, userID uint64, balance int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO wallets (user_id, balance, currency) VALUES ($1, $2, 'VRT')
		ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance
	`, userID, balance)
	if err != nil {
		t.Fatalf("seed wallet(%d): %v", userID, err)
	}
}

func TestWallets_DecreaseBalance_Table(t *testing.T) {
	t.Parallel()

	type tc struct {
		name        string
		seed        func(t *testing.T, db *sql.DB)
		userID      uint64
		amount      money.Minor
		wantBalance money.Minor
		wantErr     error
	}

	tests := []tc{
		{
			name:        "sufficient_funds_decrease_from_positive",
			seed:        func(t *testing.T, db *sql.DB) { seedWallet(t, db, 201, 1_000) },
			userID:      201,
			amount:      250,
			wantBalance: 750,
		},
		{
			name:        "sufficient_funds_exact_to_zero",
			seed:        func(t *testing.T, db *sql.DB) { seedWallet(t, db, 202, 300) },
			userID:      202,
			amount:      300,
			wantBalance: 0,
		},
		{
			name:        "insufficient_funds_balance_unchanged",
			seed:        func(t *testing.T, db *sql.DB) { seedWallet(t, db, 203, 200) },
			userID:      203,
			amount:      300,
			wantBalance: 200,
			wantErr:     wallets.ErrInsufficientFunds,
		},
		{
			name:    "wallet_missing",
			seed:    func(_ *testing.T, _ *sql.DB) {},
			userID:  999_999,
			amount:  100,
			wantErr: wallets.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			tt.seed(t, db)

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			got, err := New(tx).DecreaseBalance(ctx, tt.userID, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("decrease balance: %v", err)
				}

				if got != tt.wantBalance {
					t.Fatalf("returned balance: want %d, got %d", tt.wantBalance, got)
				}

				if err := tx.Commit(); err != nil {
					t.Fatalf("commit: %v", err)
				}
			}

			if errors.Is(tt.wantErr, wallets.ErrWalletNotFound) {
				return
			}

			w, err := New(db).Get(ctx, tt.userID)
			if err != nil {
				t.Fatalf("get wallet: %v", err)
			}

			if w.Balance != tt.wantBalance {
				t.Fatalf("final balance mismatch: want %d, got %d", tt.wantBalance, w.Balance)
			}
		})
	}
}

func TestWallets_DecreaseBalance_ConcurrentGuard(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedWallet(t, db, 1, 1000)

	var (
		wg                    sync.WaitGroup
		mu                    sync.Mutex
		success, insufficient int
	)

	worker := func(name string) {
		defer wg.Done()

		ctx := context.Background()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Errorf("[%s] begin tx: %v", name, err)
			return
		}
		defer func() { _ = tx.Rollback() }()

		repo := New(tx)

		if _, err := repo.GetForUpdate(ctx, 1); err != nil {
			t.Errorf("[%s] lock wallet: %v", name, err)
			return
		}

		_, err = repo.DecreaseBalance(ctx, 1, 1000)

		switch {
		case err == nil:
			if err := tx.Commit(); err != nil {
				t.Errorf("[%s] commit: %v", name, err)
				return
			}

			mu.Lock()
			success++
			mu.Unlock()
		case errors.Is(err, wallets.ErrInsufficientFunds):
			mu.Lock()
			insufficient++
			mu.Unlock()
		default:
			t.Errorf("[%s] unexpected error: %v", name, err)
		}
	}

	wg.Add(2)
	go worker("A")
	go worker("B")
	wg.Wait()

	if success != 1 || insufficient != 1 {
		t.Fatalf("want 1 success and 1 insufficient, got success=%d insufficient=%d", success, insufficient)
	}
}

func TestWallets_CreateAndIncrease(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	ctx := t.Context()
	repo := New(db)

	created, err := repo.Create(ctx, wallets.Wallet{UserID: 7, Balance: 500, Currency: "VRT"})
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	created, err = repo.Create(ctx, wallets.Wallet{UserID: 7, Balance: 99_999, Currency: "VRT"})
	if err != nil || created {
		t.Fatalf("second create must keep the wallet: created=%v err=%v", created, err)
	}

	bal, err := repo.IncreaseBalance(ctx, 7, 250)
	if err != nil {
		t.Fatalf("increase: %v", err)
	}

	if bal != 750 {
		t.Fatalf("want 750, got %d", bal)
	}

	if _, err := repo.IncreaseBalance(ctx, 8, 1); !errors.Is(err, wallets.ErrWalletNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
