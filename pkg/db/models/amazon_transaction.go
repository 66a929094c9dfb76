package models

import (
	"time"

	"github.com/google/uuid"
)

// AmazonTransaction is one settlement-report line. Order lines carry the
// Amazon order ID and (when the carrier reported it) a delivery date; fee,
// refund, reimbursement and adjustment lines have no order ID and can be
// negative.
type AmazonTransaction struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID       uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index"`
	OrderID         *string    `gorm:"column:order_id;index"`
	TransactionType string     `gorm:"column:transaction_type;not null"`
	AmountCents     int64      `gorm:"column:amount_cents;not null"`
	PurchaseDate    *time.Time `gorm:"column:purchase_date"`
	DeliveryDate    *time.Time `gorm:"column:delivery_date"`
	PostedDate      time.Time  `gorm:"column:posted_date;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}
