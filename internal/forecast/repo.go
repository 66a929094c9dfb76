package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// Repository manages persistence for payout rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	Update(ctx context.Context, payout *models.Payout) error
	DeleteForecasted(ctx context.Context, accountID uuid.UUID) error
	InsertForecasts(ctx context.Context, payouts []*models.Payout) error
	ListByStatus(ctx context.Context, accountID uuid.UUID, statuses ...enums.PayoutStatus) ([]models.Payout, error)
	ListConfirmedSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.Payout, error)
	NearestForecast(ctx context.Context, accountID uuid.UUID, date time.Time, windowDays int) (*models.Payout, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) Update(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Save(payout).Error
}

func (r *repository) DeleteForecasted(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, enums.PayoutStatusForecasted).
		Delete(&models.Payout{}).Error
}

func (r *repository) InsertForecasts(ctx context.Context, payouts []*models.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(payouts).Error
}

func (r *repository) ListByStatus(ctx context.Context, accountID uuid.UUID, statuses ...enums.PayoutStatus) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND status IN ?", accountID, statuses).
		Order("payout_date ASC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListConfirmedSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ? AND payout_date >= ?",
			accountID, enums.PayoutStatusConfirmed, since).
		Order("payout_date ASC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// NearestForecast finds the forecasted row closest in time to date, within
// windowDays either side. Returns nil without error when no row qualifies.
func (r *repository) NearestForecast(ctx context.Context, accountID uuid.UUID, date time.Time, windowDays int) (*models.Payout, error) {
	lower := date.AddDate(0, 0, -windowDays)
	upper := date.AddDate(0, 0, windowDays)

	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ? AND payout_date BETWEEN ? AND ?",
			accountID, enums.PayoutStatusForecasted, lower, upper).
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	if len(payouts) == 0 {
		return nil, nil
	}

	best := &payouts[0]
	bestGap := absDuration(payouts[0].PayoutDate.Sub(date))
	for i := 1; i < len(payouts); i++ {
		gap := absDuration(payouts[i].PayoutDate.Sub(date))
		if gap < bestGap {
			best = &payouts[i]
			bestGap = gap
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// TransactionRepository reads settlement-report lines for the daily model.
type TransactionRepository interface {
	ListSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.AmazonTransaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.AmazonTransaction, error) {
	var txs []models.AmazonTransaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND posted_date >= ?", accountID, since).
		Order("posted_date ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// AccountRepository reads seller accounts for forecast runs.
type AccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListWithConfirmedPayouts(ctx context.Context) ([]models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ListWithConfirmedPayouts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.Payout{}).
			Select("DISTINCT account_id").
			Where("status = ?", enums.PayoutStatusConfirmed)).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
