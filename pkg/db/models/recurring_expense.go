package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// RecurringExpense is a template expanded into concrete occurrences at
// projection time. EndDate nil means the template runs to the horizon.
type RecurringExpense struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID   uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	AmountCents int64                    `gorm:"column:amount_cents;not null"`
	Frequency   enums.RecurringFrequency `gorm:"column:frequency;type:recurring_frequency_enum;not null"`
	StartDate   time.Time                `gorm:"column:start_date;not null"`
	EndDate     *time.Time               `gorm:"column:end_date"`
	IsActive    bool                     `gorm:"column:is_active;not null;default:true"`
	Description *string                  `gorm:"column:description"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// RecurringExpenseException suppresses a single occurrence of a template.
// Suppressed occurrences are excluded from the event stream entirely.
type RecurringExpenseException struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecurringExpenseID uuid.UUID `gorm:"column:recurring_expense_id;type:uuid;not null;index"`
	ExceptionDate      time.Time `gorm:"column:exception_date;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}
