package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// IncomeItem is expected non-Amazon income (wholesale invoices, refunds due,
// one-off deposits). Pending items project as inflows on their payment date.
type IncomeItem struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID   uuid.UUID          `gorm:"column:account_id;type:uuid;not null;index"`
	AmountCents int64              `gorm:"column:amount_cents;not null"`
	PaymentDate *time.Time         `gorm:"column:payment_date"`
	Status      enums.IncomeStatus `gorm:"column:status;type:income_status_enum;not null;default:'pending'"`
	Description *string            `gorm:"column:description"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
