package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestNormalizeVendorTransactions(t *testing.T) {
	asOf := day(2026, 3, 1)
	due := day(2026, 3, 10)
	txDate := day(2026, 3, 5)

	src := Sources{VendorTransactions: []models.VendorTransaction{
		{ID: uuid.New(), Status: enums.VendorTransactionStatusPending, AmountCents: 5000, DueDate: &due, Description: strPtr("resupply PO")},
		{ID: uuid.New(), Status: enums.VendorTransactionStatusPending, AmountCents: 2500, TransactionDate: &txDate},
		{ID: uuid.New(), Status: enums.VendorTransactionStatusCompleted, AmountCents: 9999, DueDate: &due},
	}}

	got := NewNormalizer(nil, 1).Normalize(context.Background(), src, asOf, 90)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	// Ascending order: transaction-date event first.
	if !got[0].Date.Equal(txDate) || got[0].Type != enums.CashFlowEventTypeOutflow {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if !got[1].Date.Equal(due) || got[1].Description != "resupply PO" {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
}

func TestNormalizeSkipsMalformedRecords(t *testing.T) {
	asOf := day(2026, 3, 1)
	payDate := day(2026, 3, 4)

	src := Sources{
		VendorTransactions: []models.VendorTransaction{
			{ID: uuid.New(), Status: enums.VendorTransactionStatusPending, AmountCents: 100}, // no dates
		},
		IncomeItems: []models.IncomeItem{
			{ID: uuid.New(), Status: enums.IncomeStatusPending, AmountCents: 700, PaymentDate: &payDate},
			{ID: uuid.New(), Status: enums.IncomeStatusPending, AmountCents: 800}, // no payment date
		},
		CreditCards: []models.CreditCard{
			{ID: uuid.New(), Name: "Amex", BalanceCents: 1200}, // no due date
		},
	}

	got := NewNormalizer(nil, 1).Normalize(context.Background(), src, asOf, 90)
	if len(got) != 1 {
		t.Fatalf("malformed records must be skipped, not abort: got %d events", len(got))
	}
	if got[0].Type != enums.CashFlowEventTypeInflow || got[0].AmountCents != 700 {
		t.Fatalf("unexpected surviving event: %+v", got[0])
	}
}

func TestNormalizeRecurringWithExceptions(t *testing.T) {
	asOf := day(2026, 3, 1)
	tplID := uuid.New()

	src := Sources{
		RecurringExpenses: []models.RecurringExpense{
			{ID: tplID, AmountCents: 300, Frequency: enums.RecurringFrequencyWeekly, StartDate: day(2026, 3, 2), IsActive: true},
		},
		Exceptions: []models.RecurringExpenseException{
			{RecurringExpenseID: tplID, ExceptionDate: day(2026, 3, 9)},
		},
	}

	got := NewNormalizer(nil, 1).Normalize(context.Background(), src, asOf, 21)
	want := []time.Time{day(2026, 3, 2), day(2026, 3, 16)}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences after suppression, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Date.Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %s got %s", i, want[i], got[i].Date)
		}
	}
}

func TestNormalizeInactiveTemplatesAreIgnored(t *testing.T) {
	src := Sources{RecurringExpenses: []models.RecurringExpense{
		{ID: uuid.New(), AmountCents: 300, Frequency: enums.RecurringFrequencyDaily, StartDate: day(2026, 3, 1), IsActive: false},
	}}
	got := NewNormalizer(nil, 1).Normalize(context.Background(), src, day(2026, 3, 1), 30)
	if len(got) != 0 {
		t.Fatalf("inactive templates must not expand, got %d events", len(got))
	}
}

func TestNormalizePayoutBalanceImpactDate(t *testing.T) {
	asOf := day(2026, 3, 1)
	src := Sources{UpcomingPayouts: []models.Payout{
		{ID: uuid.New(), PayoutDate: day(2026, 3, 10), TotalAmountCents: 420000, Status: enums.PayoutStatusOpen},
	}}

	got := NewNormalizer(nil, 1).Normalize(context.Background(), src, asOf, 90)
	if len(got) != 1 {
		t.Fatalf("expected 1 payout event, got %d", len(got))
	}
	if !got[0].DisplayDate.Equal(day(2026, 3, 10)) {
		t.Fatalf("display date must stay on the payout date, got %s", got[0].DisplayDate)
	}
	if !got[0].Date.Equal(day(2026, 3, 11)) {
		t.Fatalf("balance-impact date must trail by the transfer delay, got %s", got[0].Date)
	}
}

func TestNormalizeWindowBounds(t *testing.T) {
	asOf := day(2026, 3, 10)
	past := day(2026, 3, 1)
	beyond := day(2026, 9, 1)
	inside := day(2026, 3, 20)

	src := Sources{IncomeItems: []models.IncomeItem{
		{ID: uuid.New(), Status: enums.IncomeStatusPending, AmountCents: 1, PaymentDate: &past},
		{ID: uuid.New(), Status: enums.IncomeStatusPending, AmountCents: 2, PaymentDate: &inside},
		{ID: uuid.New(), Status: enums.IncomeStatusPending, AmountCents: 3, PaymentDate: &beyond},
	}}

	got := NewNormalizer(nil, 1).Normalize(context.Background(), src, asOf, 90)
	if len(got) != 1 || got[0].AmountCents != 2 {
		t.Fatalf("events outside [asOf, horizon] must be excluded: %+v", got)
	}
}
