package enums

import "fmt"

// ForecastMethod identifies which payout model produced a forecast row.
type ForecastMethod string

const (
	ForecastMethodDaily            ForecastMethod = "daily"
	ForecastMethodSeasonalBiweekly ForecastMethod = "seasonal_biweekly"
)

var validForecastMethods = []ForecastMethod{
	ForecastMethodDaily,
	ForecastMethodSeasonalBiweekly,
}

// IsValid reports whether the value matches the canonical method enum.
func (m ForecastMethod) IsValid() bool {
	for _, candidate := range validForecastMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseForecastMethod converts raw input into ForecastMethod.
func ParseForecastMethod(value string) (ForecastMethod, error) {
	for _, candidate := range validForecastMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid forecast method %q", value)
}
