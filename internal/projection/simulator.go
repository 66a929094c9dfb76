package projection

import (
	"time"

	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// DailyBalancePoint is one simulated day of the cash position.
type DailyBalancePoint struct {
	Date         time.Time `json:"date"`
	BalanceCents int64     `json:"balance_cents"`
	InflowCents  int64     `json:"inflow_cents"`
	OutflowCents int64     `json:"outflow_cents"`
	EventCount   int       `json:"event_count"`
}

// ProjectDailyBalances walks the event stream day by day from the supplied
// starting balance, producing one point per day for days 0..horizonDays.
//
// Same-day events are summed. The running balance carries forward
// unconditionally; a negative balance is valid output, since surfacing a
// future shortfall is the point of the simulation. Events beyond the horizon are
// ignored; events before asOf are expected to have been filtered upstream.
func ProjectDailyBalances(stream []events.CashFlowEvent, startingBalanceCents int64, asOf time.Time, horizonDays int) []DailyBalancePoint {
	if horizonDays < 0 {
		horizonDays = 0
	}
	start := events.DateOnly(asOf)

	type daily struct {
		inflow  int64
		outflow int64
		count   int
	}
	byOffset := make(map[int]*daily)
	for _, event := range stream {
		offset := int(event.Date.Sub(start).Hours() / 24)
		if offset < 0 || offset > horizonDays {
			continue
		}
		bucket := byOffset[offset]
		if bucket == nil {
			bucket = &daily{}
			byOffset[offset] = bucket
		}
		if event.Type == enums.CashFlowEventTypeInflow {
			bucket.inflow += event.AmountCents
		} else {
			bucket.outflow += event.AmountCents
		}
		bucket.count++
	}

	points := make([]DailyBalancePoint, 0, horizonDays+1)
	balance := startingBalanceCents
	for offset := 0; offset <= horizonDays; offset++ {
		point := DailyBalancePoint{Date: start.AddDate(0, 0, offset)}
		if bucket := byOffset[offset]; bucket != nil {
			point.InflowCents = bucket.inflow
			point.OutflowCents = bucket.outflow
			point.EventCount = bucket.count
		}
		balance += point.InflowCents - point.OutflowCents
		point.BalanceCents = balance
		points = append(points, point)
	}
	return points
}
