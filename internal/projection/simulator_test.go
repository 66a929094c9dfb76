package projection

import (
	"testing"
	"time"

	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func inflow(amount int64, date time.Time) events.CashFlowEvent {
	return events.CashFlowEvent{Type: enums.CashFlowEventTypeInflow, AmountCents: amount, Date: date}
}

func outflow(amount int64, date time.Time) events.CashFlowEvent {
	return events.CashFlowEvent{Type: enums.CashFlowEventTypeOutflow, AmountCents: amount, Date: date}
}

func TestProjectDailyBalances(t *testing.T) {
	asOf := day(2026, 4, 1)
	stream := []events.CashFlowEvent{
		inflow(50000, asOf.AddDate(0, 0, 3)),
		outflow(20000, asOf.AddDate(0, 0, 5)),
	}

	points := ProjectDailyBalances(stream, 100000, asOf, 7)
	if len(points) != 8 {
		t.Fatalf("expected 8 points (day 0..7), got %d", len(points))
	}

	wantBalances := []int64{100000, 100000, 100000, 150000, 150000, 130000, 130000, 130000}
	for i, want := range wantBalances {
		if points[i].BalanceCents != want {
			t.Fatalf("day %d: expected balance %d, got %d", i, want, points[i].BalanceCents)
		}
	}
	if points[3].InflowCents != 50000 || points[3].EventCount != 1 {
		t.Fatalf("day 3 daily sums wrong: %+v", points[3])
	}
	if points[5].OutflowCents != 20000 {
		t.Fatalf("day 5 daily sums wrong: %+v", points[5])
	}
}

func TestProjectSameDayEventsAreSummed(t *testing.T) {
	asOf := day(2026, 4, 1)
	d := asOf.AddDate(0, 0, 2)
	stream := []events.CashFlowEvent{
		inflow(1000, d),
		inflow(2000, d),
		outflow(500, d),
		{Type: enums.CashFlowEventTypeCreditPayment, AmountCents: 300, Date: d},
	}

	points := ProjectDailyBalances(stream, 0, asOf, 3)
	if points[2].InflowCents != 3000 || points[2].OutflowCents != 800 {
		t.Fatalf("same-day events must sum: %+v", points[2])
	}
	if points[2].BalanceCents != 2200 || points[2].EventCount != 4 {
		t.Fatalf("unexpected day 2 point: %+v", points[2])
	}
}

func TestProjectAllowsNegativeBalances(t *testing.T) {
	asOf := day(2026, 4, 1)
	stream := []events.CashFlowEvent{outflow(5000, asOf.AddDate(0, 0, 1))}

	points := ProjectDailyBalances(stream, 1000, asOf, 2)
	if points[1].BalanceCents != -4000 {
		t.Fatalf("negative balances must surface, got %d", points[1].BalanceCents)
	}
	if points[2].BalanceCents != -4000 {
		t.Fatalf("negative balances must carry forward, got %d", points[2].BalanceCents)
	}
}

func TestProjectIgnoresEventsBeyondHorizon(t *testing.T) {
	asOf := day(2026, 4, 1)
	stream := []events.CashFlowEvent{inflow(1000, asOf.AddDate(0, 0, 30))}

	points := ProjectDailyBalances(stream, 0, asOf, 7)
	if points[len(points)-1].BalanceCents != 0 {
		t.Fatal("events beyond the horizon must be ignored")
	}
}

func TestProjectConservation(t *testing.T) {
	asOf := day(2026, 4, 1)
	stream := []events.CashFlowEvent{
		inflow(12345, asOf.AddDate(0, 0, 1)),
		outflow(2345, asOf.AddDate(0, 0, 4)),
		inflow(700, asOf.AddDate(0, 0, 4)),
		{Type: enums.CashFlowEventTypeCreditPayment, AmountCents: 999, Date: asOf.AddDate(0, 0, 9)},
		outflow(1, asOf),
	}
	start := int64(55555)
	horizon := 10

	points := ProjectDailyBalances(stream, start, asOf, horizon)

	var net int64
	for _, event := range stream {
		net += event.SignedAmountCents()
	}
	if got := points[len(points)-1].BalanceCents; got != start+net {
		t.Fatalf("conservation violated: final %d, want %d", got, start+net)
	}
}

func TestProjectDeterminism(t *testing.T) {
	asOf := day(2026, 4, 1)
	stream := []events.CashFlowEvent{
		inflow(100, asOf.AddDate(0, 0, 2)),
		outflow(50, asOf.AddDate(0, 0, 2)),
	}
	first := ProjectDailyBalances(stream, 10, asOf, 5)
	second := ProjectDailyBalances(stream, 10, asOf, 5)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("identical inputs must produce identical output at %d", i)
		}
	}
}
