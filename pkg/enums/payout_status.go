package enums

import "fmt"

// PayoutStatus maps to the payout_status_enum enum in Postgres.
//
// open:       a settlement cycle Amazon has started but not disbursed yet.
// forecasted: a row produced by a forecast model; replaced wholesale on
//             every regeneration run.
// confirmed:  a realized disbursement; may carry the forecast it replaced.
type PayoutStatus string

const (
	PayoutStatusOpen       PayoutStatus = "open"
	PayoutStatusForecasted PayoutStatus = "forecasted"
	PayoutStatusConfirmed  PayoutStatus = "confirmed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusOpen,
	PayoutStatusForecasted,
	PayoutStatusConfirmed,
}

// IsValid reports whether the value matches the canonical status enum.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
