package events

import (
	"time"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// ExpandOccurrences generates the concrete dates a recurring template fires
// on within [windowStart, windowEnd]. The template's own start/end bounds are
// honored first; a nil end runs to the window end. All returned dates are
// midnight UTC, ascending.
func ExpandOccurrences(freq enums.RecurringFrequency, start time.Time, end *time.Time, windowStart, windowEnd time.Time) []time.Time {
	start = DateOnly(start)
	windowStart = DateOnly(windowStart)
	windowEnd = DateOnly(windowEnd)

	last := windowEnd
	if end != nil && DateOnly(*end).Before(last) {
		last = DateOnly(*end)
	}
	if last.Before(start) || last.Before(windowStart) {
		return nil
	}

	var out []time.Time
	appendInWindow := func(d time.Time) {
		if !d.Before(windowStart) && !d.After(last) {
			out = append(out, d)
		}
	}

	switch freq {
	case enums.RecurringFrequencyDaily:
		for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
			appendInWindow(d)
		}
	case enums.RecurringFrequencyWeekdays:
		for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
				appendInWindow(d)
			}
		}
	case enums.RecurringFrequencyWeekly:
		for d := start; !d.After(last); d = d.AddDate(0, 0, 7) {
			appendInWindow(d)
		}
	case enums.RecurringFrequencyBiweekly:
		for d := start; !d.After(last); d = d.AddDate(0, 0, 14) {
			appendInWindow(d)
		}
	case enums.RecurringFrequencyMonthly:
		// Anchor to the start day-of-month, clamping into short months so a
		// template anchored on the 31st still fires in February.
		anchorDay := start.Day()
		for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); ; m = m.AddDate(0, 1, 0) {
			d := clampToMonth(m, anchorDay)
			if d.Before(start) {
				continue
			}
			if d.After(last) {
				break
			}
			appendInWindow(d)
		}
	case enums.RecurringFrequencyYearly:
		for y := start; !y.After(last); y = y.AddDate(1, 0, 0) {
			appendInWindow(y)
		}
	}
	return out
}

func clampToMonth(firstOfMonth time.Time, day int) time.Time {
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}
