package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// Account is a seller workspace. Every engine entity is scoped to exactly
// one account; nothing is shared across accounts.
type Account struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string               `gorm:"column:name;not null"`
	AmazonAccountID   *string              `gorm:"column:amazon_account_id"`
	ForecastMethod    enums.ForecastMethod `gorm:"column:forecast_method;type:forecast_method_enum;not null;default:'seasonal_biweekly'"`
	RiskTier          enums.RiskTier       `gorm:"column:risk_tier;type:risk_tier_enum;not null;default:'medium'"`
	RiskAdjustmentPct *float64             `gorm:"column:risk_adjustment_pct"`
	ReserveCents      int64                `gorm:"column:reserve_cents;not null;default:0"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
