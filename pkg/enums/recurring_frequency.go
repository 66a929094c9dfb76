package enums

import "fmt"

// RecurringFrequency maps to the recurring_frequency_enum enum in Postgres.
type RecurringFrequency string

const (
	RecurringFrequencyDaily    RecurringFrequency = "daily"
	RecurringFrequencyWeekly   RecurringFrequency = "weekly"
	RecurringFrequencyBiweekly RecurringFrequency = "biweekly"
	RecurringFrequencyWeekdays RecurringFrequency = "weekdays"
	RecurringFrequencyMonthly  RecurringFrequency = "monthly"
	RecurringFrequencyYearly   RecurringFrequency = "yearly"
)

var validRecurringFrequencies = []RecurringFrequency{
	RecurringFrequencyDaily,
	RecurringFrequencyWeekly,
	RecurringFrequencyBiweekly,
	RecurringFrequencyWeekdays,
	RecurringFrequencyMonthly,
	RecurringFrequencyYearly,
}

// IsValid reports whether the value matches the canonical frequency enum.
func (f RecurringFrequency) IsValid() bool {
	for _, candidate := range validRecurringFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseRecurringFrequency converts raw input into RecurringFrequency.
func ParseRecurringFrequency(value string) (RecurringFrequency, error) {
	for _, candidate := range validRecurringFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recurring frequency %q", value)
}
