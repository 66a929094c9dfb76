package accuracy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// SampleRepository reads confirmed payouts that replaced a forecast.
type SampleRepository interface {
	ListMatched(ctx context.Context, accountID uuid.UUID) ([]models.Payout, error)
}

type sampleRepository struct {
	db *gorm.DB
}

// NewSampleRepository returns a sample repository bound to the provided database.
func NewSampleRepository(db *gorm.DB) SampleRepository {
	return &sampleRepository{db: db}
}

func (r *sampleRepository) ListMatched(ctx context.Context, accountID uuid.UUID) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ? AND original_forecast_cents IS NOT NULL",
			accountID, enums.PayoutStatusConfirmed).
		Order("payout_date ASC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}
