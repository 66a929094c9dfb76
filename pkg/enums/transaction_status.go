package enums

import "fmt"

// VendorTransactionStatus tracks whether a purchase order has settled.
type VendorTransactionStatus string

const (
	VendorTransactionStatusPending   VendorTransactionStatus = "pending"
	VendorTransactionStatusCompleted VendorTransactionStatus = "completed"
	VendorTransactionStatusCanceled  VendorTransactionStatus = "canceled"
)

var validVendorTransactionStatuses = []VendorTransactionStatus{
	VendorTransactionStatusPending,
	VendorTransactionStatusCompleted,
	VendorTransactionStatusCanceled,
}

// IsValid reports whether the value matches the canonical status enum.
func (s VendorTransactionStatus) IsValid() bool {
	for _, candidate := range validVendorTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVendorTransactionStatus converts raw input into VendorTransactionStatus.
func ParseVendorTransactionStatus(value string) (VendorTransactionStatus, error) {
	for _, candidate := range validVendorTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor transaction status %q", value)
}

// IncomeStatus tracks whether an expected income item has been received.
type IncomeStatus string

const (
	IncomeStatusPending  IncomeStatus = "pending"
	IncomeStatusReceived IncomeStatus = "received"
)

// IsValid reports whether the value matches the canonical status enum.
func (s IncomeStatus) IsValid() bool {
	return s == IncomeStatusPending || s == IncomeStatusReceived
}
