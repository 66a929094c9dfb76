package projection

import "time"

// BuyingOpportunity states how much could be withdrawn on Date without the
// projected balance dropping below the reserve at any later date in the
// horizon. ConstrainingDate is the future date whose minimum determines the
// cap (first occurrence on ties).
type BuyingOpportunity struct {
	Date             time.Time `json:"date"`
	MaxSafeCents     int64     `json:"max_safe_cents"`
	ConstrainingDate time.Time `json:"constraining_date"`
	ReserveCents     int64     `json:"reserve_cents"`
}

// ComputeBuyingOpportunities runs a single backward suffix-minimum pass over
// the simulated series. maxSafe(d) = max(0, suffixMin(d) - reserve); it is
// never negative. When even today's floor breaches the reserve the result
// is a zero-spend claim, not an error.
func ComputeBuyingOpportunities(series []DailyBalancePoint, reserveCents int64) []BuyingOpportunity {
	if len(series) == 0 {
		return nil
	}

	out := make([]BuyingOpportunity, len(series))
	suffixMin := series[len(series)-1].BalanceCents
	constraining := series[len(series)-1].Date
	for i := len(series) - 1; i >= 0; i-- {
		// <= keeps the earliest date on ties as we scan backward.
		if series[i].BalanceCents <= suffixMin {
			suffixMin = series[i].BalanceCents
			constraining = series[i].Date
		}
		maxSafe := suffixMin - reserveCents
		if maxSafe < 0 {
			maxSafe = 0
		}
		out[i] = BuyingOpportunity{
			Date:             series[i].Date,
			MaxSafeCents:     maxSafe,
			ConstrainingDate: constraining,
			ReserveCents:     reserveCents,
		}
	}
	return out
}
