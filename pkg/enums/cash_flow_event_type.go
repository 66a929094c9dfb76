package enums

import "fmt"

// CashFlowEventType classifies a projected cash movement.
type CashFlowEventType string

const (
	CashFlowEventTypeInflow        CashFlowEventType = "inflow"
	CashFlowEventTypeOutflow       CashFlowEventType = "outflow"
	CashFlowEventTypeCreditPayment CashFlowEventType = "credit_payment"
)

var validCashFlowEventTypes = []CashFlowEventType{
	CashFlowEventTypeInflow,
	CashFlowEventTypeOutflow,
	CashFlowEventTypeCreditPayment,
}

// IsValid reports whether the value matches the canonical event type set.
func (t CashFlowEventType) IsValid() bool {
	for _, candidate := range validCashFlowEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Sign returns +1 for inflows and -1 for outflows and credit payments.
func (t CashFlowEventType) Sign() int64 {
	if t == CashFlowEventTypeInflow {
		return 1
	}
	return -1
}

// ParseCashFlowEventType converts raw input into CashFlowEventType.
func ParseCashFlowEventType(value string) (CashFlowEventType, error) {
	for _, candidate := range validCashFlowEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cash flow event type %q", value)
}
