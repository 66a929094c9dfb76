package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// VendorTransaction is a purchase order / vendor bill. Until it is marked
// completed it is a projected outflow on its due date (or transaction date
// when no due date is known).
type VendorTransaction struct {
	ID              uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID       uuid.UUID                     `gorm:"column:account_id;type:uuid;not null;index"`
	AmountCents     int64                         `gorm:"column:amount_cents;not null"`
	DueDate         *time.Time                    `gorm:"column:due_date"`
	TransactionDate *time.Time                    `gorm:"column:transaction_date"`
	Status          enums.VendorTransactionStatus `gorm:"column:status;type:vendor_transaction_status_enum;not null;default:'pending'"`
	Description     *string                       `gorm:"column:description"`
	CreatedAt       time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}
