package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// Payout is one Amazon disbursement row. Forecast rows and realized rows
// share this table; Status drives the lifecycle. Forecasted rows are always
// replaced wholesale by a regeneration run, never patched in place.
//
// When a realized settlement replaces a forecast, the forecast's amount and
// the resulting accuracy are pinned onto the confirmed row so accuracy
// reporting never depends on rows that no longer exist.
type Payout struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID        uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index:idx_payouts_account_status"`
	PayoutDate       time.Time             `gorm:"column:payout_date;not null"`
	TotalAmountCents int64                 `gorm:"column:total_amount_cents;not null"`
	Status           enums.PayoutStatus    `gorm:"column:status;type:payout_status_enum;not null;index:idx_payouts_account_status"`
	Method           *enums.ForecastMethod `gorm:"column:method;type:forecast_method_enum"`
	ModelInputs      json.RawMessage       `gorm:"column:model_inputs;type:jsonb"`

	OriginalForecastCents *int64     `gorm:"column:original_forecast_cents"`
	ForecastAccuracyPct   *float64   `gorm:"column:forecast_accuracy_pct"`
	ForecastReplacedAt    *time.Time `gorm:"column:forecast_replaced_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
