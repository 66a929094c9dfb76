package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditCard carries the linked card's running balance and next due date.
// The projection treats the full balance as due on the payment date.
type CreditCard struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID      uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index"`
	Name           string     `gorm:"column:name;not null"`
	BalanceCents   int64      `gorm:"column:balance_cents;not null;default:0"`
	PaymentDueDate *time.Time `gorm:"column:payment_due_date"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
