package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	profitWallets := `
CREATE TABLE IF NOT EXISTS profit_wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  available_balance INTEGER NOT NULL DEFAULT 0,
  pending_balance INTEGER NOT NULL DEFAULT 0,
  total_earned INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, stmt := range []string{wallets, profitWallets} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func TestDebitWalletRefusesOverdraw(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, db.Create(&models.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: money.MustParse("10.00"),
	}).Error)

	ok, err := repo.DebitWallet(ctx, userID, money.MustParse("15.00"))
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := repo.FindWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("10.00"), w.Balance)

	ok, err = repo.DebitWallet(ctx, userID, money.MustParse("10.00"))
	require.NoError(t, err)
	assert.True(t, ok)

	w, err = repo.FindWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), w.Balance)
}

func TestCreditProfitGrowsAvailableAndTotal(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.EnsureProfitWallet(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, repo.CreditProfit(ctx, userID, money.MustParse("0.35")))
	require.NoError(t, repo.CreditProfit(ctx, userID, money.MustParse("0.65")))

	w, err := repo.FindProfitWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("1.00"), w.AvailableBalance)
	assert.Equal(t, money.MustParse("1.00"), w.TotalEarned)
}

func TestDebitProfitAvailableChecksBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.EnsureProfitWallet(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, repo.CreditProfit(ctx, userID, money.MustParse("5.00")))

	ok, err := repo.DebitProfitAvailable(ctx, userID, money.MustParse("6.00"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DebitProfitAvailable(ctx, userID, money.MustParse("5.00"))
	require.NoError(t, err)
	assert.True(t, ok)

	w, err := repo.FindProfitWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), w.AvailableBalance)
	// total earned never decreases
	assert.Equal(t, money.MustParse("5.00"), w.TotalEarned)
}

func TestEnsureWalletIsIdempotent(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := repo.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	second, err := repo.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
