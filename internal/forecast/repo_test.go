package forecast

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

func setupPayoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	payouts := `
CREATE TABLE IF NOT EXISTS payouts (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  payout_date DATETIME NOT NULL,
  total_amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL,
  method TEXT,
  model_inputs TEXT,
  original_forecast_cents INTEGER,
  forecast_accuracy_pct REAL,
  forecast_replaced_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS amazon_transactions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  order_id TEXT,
  transaction_type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  purchase_date DATETIME,
  delivery_date DATETIME,
  posted_date DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(payouts).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func insertPayout(t *testing.T, db *gorm.DB, accountID uuid.UUID, date time.Time, cents int64, status enums.PayoutStatus) models.Payout {
	t.Helper()
	payout := models.Payout{
		ID:               uuid.New(),
		AccountID:        accountID,
		PayoutDate:       date,
		TotalAmountCents: cents,
		Status:           status,
	}
	require.NoError(t, db.Create(&payout).Error)
	return payout
}

func TestRepository_DeleteForecastedLeavesOtherRows(t *testing.T) {
	db := setupPayoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	accountID := uuid.New()
	otherAccount := uuid.New()

	insertPayout(t, db, accountID, day(2026, time.July, 1), 100, enums.PayoutStatusForecasted)
	insertPayout(t, db, accountID, day(2026, time.July, 15), 200, enums.PayoutStatusForecasted)
	kept := insertPayout(t, db, accountID, day(2026, time.June, 1), 300, enums.PayoutStatusConfirmed)
	foreign := insertPayout(t, db, otherAccount, day(2026, time.July, 1), 400, enums.PayoutStatusForecasted)

	require.NoError(t, repo.DeleteForecasted(ctx, accountID))

	var remaining []models.Payout
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)

	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.Contains(t, ids, kept.ID)
	assert.Contains(t, ids, foreign.ID)
}

func TestRepository_InsertForecastsAndList(t *testing.T) {
	db := setupPayoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	method := enums.ForecastMethodSeasonalBiweekly
	rows := []*models.Payout{
		{ID: uuid.New(), AccountID: accountID, PayoutDate: day(2026, time.August, 12), TotalAmountCents: 200, Status: enums.PayoutStatusForecasted, Method: &method},
		{ID: uuid.New(), AccountID: accountID, PayoutDate: day(2026, time.July, 29), TotalAmountCents: 100, Status: enums.PayoutStatusForecasted, Method: &method},
	}
	require.NoError(t, repo.InsertForecasts(ctx, rows))
	require.NoError(t, repo.InsertForecasts(ctx, nil))

	listed, err := repo.ListByStatus(ctx, accountID, enums.PayoutStatusForecasted)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].PayoutDate.Before(listed[1].PayoutDate), "rows must come back date ascending")
}

func TestRepository_ListConfirmedSince(t *testing.T) {
	db := setupPayoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	insertPayout(t, db, accountID, day(2026, time.January, 5), 100, enums.PayoutStatusConfirmed)
	insertPayout(t, db, accountID, day(2026, time.June, 5), 200, enums.PayoutStatusConfirmed)
	insertPayout(t, db, accountID, day(2026, time.July, 5), 300, enums.PayoutStatusOpen)

	listed, err := repo.ListConfirmedSince(ctx, accountID, day(2026, time.March, 1))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(200), listed[0].TotalAmountCents)
}

func TestRepository_NearestForecast(t *testing.T) {
	db := setupPayoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	insertPayout(t, db, accountID, day(2026, time.July, 20), 100, enums.PayoutStatusForecasted)
	closest := insertPayout(t, db, accountID, day(2026, time.July, 29), 200, enums.PayoutStatusForecasted)
	insertPayout(t, db, accountID, day(2026, time.July, 28), 300, enums.PayoutStatusConfirmed)

	match, err := repo.NearestForecast(ctx, accountID, day(2026, time.July, 30), 7)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, closest.ID, match.ID)

	none, err := repo.NearestForecast(ctx, accountID, day(2026, time.December, 1), 7)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransactionRepository_ListSince(t *testing.T) {
	db := setupPayoutTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	older := models.AmazonTransaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		TransactionType: "Order",
		AmountCents:     100,
		PostedDate:      day(2026, time.May, 1),
	}
	newer := models.AmazonTransaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		TransactionType: "Refund",
		AmountCents:     -50,
		PostedDate:      day(2026, time.July, 1),
	}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	listed, err := repo.ListSince(ctx, accountID, day(2026, time.June, 1))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, newer.ID, listed[0].ID)
}
