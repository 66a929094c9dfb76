package events

import (
	"time"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// CashFlowEvent is one dated cash movement in a projection run. Events are
// value objects: a fresh normalization pass builds a new stream per request
// and nothing mutates an event after construction.
type CashFlowEvent struct {
	ID          string                  `json:"id"`
	Type        enums.CashFlowEventType `json:"type"`
	AmountCents int64                   `json:"amount_cents"`
	// Date is the balance-impact date the simulator accumulates on. For
	// Amazon payouts it trails DisplayDate by the interbank transfer time.
	Date        time.Time `json:"date"`
	DisplayDate time.Time `json:"display_date"`
	Description string    `json:"description"`
	SourceRef   string    `json:"source_ref,omitempty"`
}

// SignedAmountCents returns the amount with the sign implied by the type.
func (e CashFlowEvent) SignedAmountCents() int64 {
	return e.Type.Sign() * e.AmountCents
}

// DateOnly truncates t to midnight UTC so same-day events compare equal.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
