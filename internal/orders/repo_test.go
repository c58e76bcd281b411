package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  amount INTEGER NOT NULL,
  profit INTEGER NOT NULL DEFAULT 0,
  agent_profit INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  delivery_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  is_bulk_order INTEGER NOT NULL DEFAULT 0,
  user_id TEXT,
  agent_id TEXT,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  payment_reference TEXT,
  failure_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  recipient_phone TEXT NOT NULL,
  unit_price INTEGER NOT NULL,
  base_cost INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  detail TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, stmt := range []string{transactions, orderItems} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedUserTransactions(t *testing.T, db *gorm.DB, userID uuid.UUID, count int) []models.Transaction {
	t.Helper()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	txns := make([]models.Transaction, 0, count)
	for i := 0; i < count; i++ {
		txn := models.Transaction{
			ID:            uuid.New(),
			Reference:     fmt.Sprintf("DM-LIST%05d", i),
			Type:          enums.TransactionTypeDataBundle,
			Amount:        money.MustParse("3.50"),
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusPending,
			PaymentMethod: enums.PaymentMethodGateway,
			CustomerPhone: "0241234567",
			UserID:        &userID,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&txn).Error)
		txns = append(txns, txn)
	}
	return txns
}

func TestListByUserPagesNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	seeded := seedUserTransactions(t, db, userID, 5)

	first, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	assert.Equal(t, seeded[4].Reference, first.Transactions[0].Reference)
	assert.Equal(t, seeded[3].Reference, first.Transactions[1].Reference)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 2)
	assert.Equal(t, seeded[2].Reference, second.Transactions[0].Reference)
	assert.Equal(t, seeded[1].Reference, second.Transactions[1].Reference)
	require.NotEmpty(t, second.NextCursor)

	last, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, last.Transactions, 1)
	assert.Equal(t, seeded[0].Reference, last.Transactions[0].Reference)
	assert.Empty(t, last.NextCursor)
}

func TestListByUserScopedToOwner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	seedUserTransactions(t, db, owner, 3)

	page, err := repo.ListByUser(ctx, uuid.New(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
	assert.Empty(t, page.NextCursor)
}

func TestListByUserRejectsMalformedCursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.ListByUser(context.Background(), uuid.New(), pagination.Params{Cursor: "garbage!"})
	require.Error(t, err)
}
