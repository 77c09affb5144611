package wallets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
)

func TestWallets_Memory(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	tbl := NewTable()
	repo := New(tbl)

	created, err := repo.Create(ctx, wallets.Wallet{UserID: 1, Balance: 1000, Currency: "VRT"})
	require.NoError(t, err)
	assert.True(t, created)

	bal, err := repo.DecreaseBalance(ctx, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(0), bal)

	_, err = repo.DecreaseBalance(ctx, 1, 1)
	assert.ErrorIs(t, err, wallets.ErrInsufficientFunds)

	_, err = repo.Get(ctx, 2)
	assert.ErrorIs(t, err, wallets.ErrWalletNotFound)
}

func TestTable_Rollback(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	tbl := NewTable()
	_, err := New(tbl).Create(ctx, wallets.Wallet{UserID: 1, Balance: 100})
	require.NoError(t, err)

	tbl.Begin()

	_, err = New(tbl).IncreaseBalance(ctx, 1, 50)
	require.NoError(t, err)
	_, err = New(tbl).DecreaseBalance(ctx, 1, 20)
	require.NoError(t, err)
	_, err = New(tbl).Create(ctx, wallets.Wallet{UserID: 2, Balance: 5})
	require.NoError(t, err)

	tbl.Rollback()

	orig, err := New(tbl).Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Minor(100), orig.Balance)

	_, err = New(tbl).Get(ctx, 2)
	assert.ErrorIs(t, err, wallets.ErrWalletNotFound)
}
