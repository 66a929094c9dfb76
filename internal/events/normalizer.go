package events

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

// Sources holds the raw records a projection run reads. All collections are
// snapshots; the normalizer never writes back.
type Sources struct {
	VendorTransactions []models.VendorTransaction
	IncomeItems        []models.IncomeItem
	RecurringExpenses  []models.RecurringExpense
	Exceptions         []models.RecurringExpenseException
	CreditCards        []models.CreditCard
	UpcomingPayouts    []models.Payout
}

// Normalizer flattens heterogeneous source records into a single
// ascending-by-date CashFlowEvent stream. A malformed record is skipped and
// logged; it never aborts the pass.
type Normalizer struct {
	logg *logger.Logger
	// payoutTransferDays models the interbank delay between Amazon's payout
	// date and the cash landing in the bank account.
	payoutTransferDays int
}

// NewNormalizer builds a normalizer. payoutTransferDays below zero is
// treated as zero.
func NewNormalizer(logg *logger.Logger, payoutTransferDays int) *Normalizer {
	if payoutTransferDays < 0 {
		payoutTransferDays = 0
	}
	return &Normalizer{logg: logg, payoutTransferDays: payoutTransferDays}
}

// Normalize produces the event stream for [asOf, asOf+horizonDays]. Events
// dated before asOf or beyond the horizon are excluded.
func (n *Normalizer) Normalize(ctx context.Context, src Sources, asOf time.Time, horizonDays int) []CashFlowEvent {
	windowStart := DateOnly(asOf)
	windowEnd := windowStart.AddDate(0, 0, horizonDays)

	var out []CashFlowEvent
	var skipped error

	keep := func(e CashFlowEvent) {
		if e.Date.Before(windowStart) || e.Date.After(windowEnd) {
			return
		}
		out = append(out, e)
	}

	for _, tx := range src.VendorTransactions {
		if tx.Status != enums.VendorTransactionStatusPending {
			continue
		}
		date := tx.DueDate
		if date == nil {
			date = tx.TransactionDate
		}
		if date == nil {
			skipped = multierr.Append(skipped, fmt.Errorf("vendor transaction %s: no due or transaction date", tx.ID))
			continue
		}
		if tx.AmountCents < 0 {
			skipped = multierr.Append(skipped, fmt.Errorf("vendor transaction %s: negative amount", tx.ID))
			continue
		}
		d := DateOnly(*date)
		keep(CashFlowEvent{
			ID:          fmt.Sprintf("vendor-tx-%s", tx.ID),
			Type:        enums.CashFlowEventTypeOutflow,
			AmountCents: tx.AmountCents,
			Date:        d,
			DisplayDate: d,
			Description: derefOr(tx.Description, "Vendor payment"),
			SourceRef:   tx.ID.String(),
		})
	}

	for _, item := range src.IncomeItems {
		if item.Status != enums.IncomeStatusPending {
			continue
		}
		if item.PaymentDate == nil {
			skipped = multierr.Append(skipped, fmt.Errorf("income item %s: no payment date", item.ID))
			continue
		}
		if item.AmountCents < 0 {
			skipped = multierr.Append(skipped, fmt.Errorf("income item %s: negative amount", item.ID))
			continue
		}
		d := DateOnly(*item.PaymentDate)
		keep(CashFlowEvent{
			ID:          fmt.Sprintf("income-%s", item.ID),
			Type:        enums.CashFlowEventTypeInflow,
			AmountCents: item.AmountCents,
			Date:        d,
			DisplayDate: d,
			Description: derefOr(item.Description, "Expected income"),
			SourceRef:   item.ID.String(),
		})
	}

	suppressed := exceptionIndex(src.Exceptions)
	for _, tpl := range src.RecurringExpenses {
		if !tpl.IsActive {
			continue
		}
		if !tpl.Frequency.IsValid() {
			skipped = multierr.Append(skipped, fmt.Errorf("recurring expense %s: invalid frequency %q", tpl.ID, tpl.Frequency))
			continue
		}
		for _, occ := range ExpandOccurrences(tpl.Frequency, tpl.StartDate, tpl.EndDate, windowStart, windowEnd) {
			if suppressed[exceptionKey(tpl.ID.String(), occ)] {
				continue
			}
			keep(CashFlowEvent{
				ID:          fmt.Sprintf("recurring-%s-%s", tpl.ID, occ.Format("2006-01-02")),
				Type:        enums.CashFlowEventTypeOutflow,
				AmountCents: tpl.AmountCents,
				Date:        occ,
				DisplayDate: occ,
				Description: derefOr(tpl.Description, "Recurring expense"),
				SourceRef:   tpl.ID.String(),
			})
		}
	}

	for _, card := range src.CreditCards {
		if card.PaymentDueDate == nil {
			skipped = multierr.Append(skipped, fmt.Errorf("credit card %s: no payment due date", card.ID))
			continue
		}
		if card.BalanceCents <= 0 {
			continue
		}
		d := DateOnly(*card.PaymentDueDate)
		keep(CashFlowEvent{
			ID:          fmt.Sprintf("credit-card-%s", card.ID),
			Type:        enums.CashFlowEventTypeCreditPayment,
			AmountCents: card.BalanceCents,
			Date:        d,
			DisplayDate: d,
			Description: fmt.Sprintf("%s payment due", card.Name),
			SourceRef:   card.ID.String(),
		})
	}

	for _, payout := range src.UpcomingPayouts {
		if payout.Status == enums.PayoutStatusConfirmed {
			continue
		}
		if payout.TotalAmountCents < 0 {
			skipped = multierr.Append(skipped, fmt.Errorf("payout %s: negative amount", payout.ID))
			continue
		}
		display := DateOnly(payout.PayoutDate)
		keep(CashFlowEvent{
			ID:          fmt.Sprintf("payout-%s", payout.ID),
			Type:        enums.CashFlowEventTypeInflow,
			AmountCents: payout.TotalAmountCents,
			Date:        display.AddDate(0, 0, n.payoutTransferDays),
			DisplayDate: display,
			Description: "Amazon payout",
			SourceRef:   payout.ID.String(),
		})
	}

	if skipped != nil && n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{
			"skipped": len(multierr.Errors(skipped)),
			"reasons": skipped.Error(),
		})
		n.logg.Warn(ctx, "normalizer skipped malformed source records")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func exceptionIndex(exceptions []models.RecurringExpenseException) map[string]bool {
	idx := make(map[string]bool, len(exceptions))
	for _, exc := range exceptions {
		idx[exceptionKey(exc.RecurringExpenseID.String(), DateOnly(exc.ExceptionDate))] = true
	}
	return idx
}

func exceptionKey(templateID string, date time.Time) string {
	return templateID + "@" + date.Format("2006-01-02")
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
