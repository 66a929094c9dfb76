package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// SourceRepository loads the raw record snapshot a projection run consumes.
type SourceRepository interface {
	LoadSources(ctx context.Context, accountID uuid.UUID, asOf time.Time) (Sources, error)
}

type sourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository returns a source repository bound to the provided database.
func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) LoadSources(ctx context.Context, accountID uuid.UUID, asOf time.Time) (Sources, error) {
	var src Sources
	conn := r.db.WithContext(ctx)

	if err := conn.
		Where("account_id = ? AND status = ?", accountID, enums.VendorTransactionStatusPending).
		Find(&src.VendorTransactions).Error; err != nil {
		return Sources{}, err
	}

	if err := conn.
		Where("account_id = ? AND status = ?", accountID, enums.IncomeStatusPending).
		Find(&src.IncomeItems).Error; err != nil {
		return Sources{}, err
	}

	if err := conn.
		Where("account_id = ? AND is_active = ?", accountID, true).
		Find(&src.RecurringExpenses).Error; err != nil {
		return Sources{}, err
	}

	if len(src.RecurringExpenses) > 0 {
		templateIDs := make([]uuid.UUID, 0, len(src.RecurringExpenses))
		for _, tpl := range src.RecurringExpenses {
			templateIDs = append(templateIDs, tpl.ID)
		}
		if err := conn.
			Where("recurring_expense_id IN ?", templateIDs).
			Find(&src.Exceptions).Error; err != nil {
			return Sources{}, err
		}
	}

	if err := conn.
		Where("account_id = ?", accountID).
		Find(&src.CreditCards).Error; err != nil {
		return Sources{}, err
	}

	// Keep a small lookback so a payout dated yesterday whose cash lands
	// today still projects.
	if err := conn.
		Where("account_id = ? AND status IN ? AND payout_date >= ?",
			accountID,
			[]enums.PayoutStatus{enums.PayoutStatusOpen, enums.PayoutStatusForecasted},
			DateOnly(asOf).AddDate(0, 0, -7)).
		Order("payout_date ASC").
		Find(&src.UpcomingPayouts).Error; err != nil {
		return Sources{}, err
	}

	return src, nil
}
