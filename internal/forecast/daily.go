package forecast

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
)

var orderIDPattern = regexp.MustCompile(`^\d{3}-\d{7}-\d{7}$`)

// excludedTransactionTypes never contribute to order cash. Matching is
// case-insensitive on substring because marketplace exports are not
// consistent about exact type labels.
var excludedTransactionTypes = []string{"removal", "liquidation", "disposal"}

// dailyModel forecasts marketplace accounts that settle every day. Cash from
// each order unlocks a fixed number of days after delivery; the model tracks
// known unlocks, extrapolates future ones from a trailing weekday profile,
// and carries the backlog accumulated since the last cashout.
type dailyModel struct {
	cfg config.ForecastConfig
}

func NewDailyModel(cfg config.ForecastConfig) Model {
	return &dailyModel{cfg: cfg}
}

func (m *dailyModel) Method() enums.ForecastMethod {
	return enums.ForecastMethodDaily
}

type dailyInputs struct {
	TrailingDailyAvgCents int64   `json:"trailing_daily_avg_cents"`
	GrowthFactor          float64 `json:"growth_factor"`
	BacklogCents          int64   `json:"backlog_cents"`
	RiskAdjustmentPct     float64 `json:"risk_adjustment_pct"`
	KnownUnlock           bool    `json:"known_unlock"`
}

func (m *dailyModel) Generate(_ context.Context, history History) ([]Draft, error) {
	asOf := events.DateOnly(history.AsOf)

	unlocked := m.dailyUnlocked(history.Transactions)

	lastCashout := asOf.AddDate(0, 0, -m.cfg.TrailingWindowDays)
	if latest := latestByDate(history.ConfirmedPayouts); latest != nil {
		lastCashout = events.DateOnly(latest.PayoutDate)
	}

	trailingAvg := m.trailingAverage(unlocked, asOf)
	profile := m.weekdayProfile(unlocked, asOf, trailingAvg)
	growth := m.growthFactor(unlocked, asOf)

	riskPct := m.cfg.RiskAdjustmentPct
	if history.RiskAdjustmentPct > 0 {
		riskPct = history.RiskAdjustmentPct
	}
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(riskPct).Div(decimal.NewFromInt(100)))
	if keep.IsNegative() {
		keep = decimal.Zero
	}

	// Backlog starts as everything unlocked since the last cashout and grows
	// as each forecast day passes without the seller cashing out.
	backlog := decimal.Zero
	for day := lastCashout.AddDate(0, 0, 1); !day.After(asOf); day = day.AddDate(0, 0, 1) {
		if cents, ok := unlocked[day]; ok {
			backlog = backlog.Add(decimal.NewFromInt(cents))
		}
	}

	one := decimal.NewFromInt(1)
	horizon := decimal.NewFromInt(int64(m.cfg.HorizonDays))

	drafts := make([]Draft, 0, m.cfg.HorizonDays)
	for i := 1; i <= m.cfg.HorizonDays; i++ {
		date := asOf.AddDate(0, 0, i)

		var dayUnlock decimal.Decimal
		known := i <= m.cfg.UnlockDelayDays
		if known {
			// Orders already placed fully determine unlocks this close in.
			dayUnlock = decimal.NewFromInt(unlocked[date])
		} else {
			ramp := one.Add(growth.Sub(one).Mul(decimal.NewFromInt(int64(i))).Div(horizon))
			dayUnlock = profile[date.Weekday()].Mul(ramp)
		}

		available := backlog.Add(dayUnlock)
		if available.IsNegative() {
			available = decimal.Zero
		}
		cents := available.Mul(keep).Round(0).IntPart()

		inputs, err := json.Marshal(dailyInputs{
			TrailingDailyAvgCents: trailingAvg.Round(0).IntPart(),
			GrowthFactor:          growth.InexactFloat64(),
			BacklogCents:          backlog.Round(0).IntPart(),
			RiskAdjustmentPct:     riskPct,
			KnownUnlock:           known,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal model inputs")
		}

		drafts = append(drafts, Draft{
			PayoutDate:  date,
			AmountCents: cents,
			ModelInputs: inputs,
		})

		// Only known unlocks roll into the next day's backlog, never the
		// projected baseline.
		backlog = backlog.Add(decimal.NewFromInt(unlocked[date]))
	}
	return drafts, nil
}

// dailyUnlocked buckets cash by the date it becomes transferable. Order cash
// unlocks a fixed delay after delivery, with delivery estimated from the
// purchase date when the carrier never reported it. Non-order rows hit the
// balance on their posted date with their original sign.
func (m *dailyModel) dailyUnlocked(txs []models.AmazonTransaction) map[time.Time]int64 {
	unlocked := make(map[time.Time]int64)
	for _, tx := range txs {
		if isOrderTransaction(tx) {
			delivery := tx.DeliveryDate
			if delivery == nil && tx.PurchaseDate != nil {
				d := tx.PurchaseDate.AddDate(0, 0, m.cfg.DeliveryEstimateDays)
				delivery = &d
			}
			if delivery == nil {
				d := tx.PostedDate.AddDate(0, 0, m.cfg.DeliveryEstimateDays)
				delivery = &d
			}
			day := events.DateOnly(delivery.AddDate(0, 0, m.cfg.UnlockDelayDays))
			unlocked[day] += tx.AmountCents
			continue
		}
		day := events.DateOnly(tx.PostedDate)
		unlocked[day] += tx.AmountCents
	}
	return unlocked
}

func isOrderTransaction(tx models.AmazonTransaction) bool {
	if tx.OrderID == nil || !orderIDPattern.MatchString(*tx.OrderID) {
		return false
	}
	if tx.AmountCents <= 0 {
		return false
	}
	lowered := strings.ToLower(tx.TransactionType)
	for _, excluded := range excludedTransactionTypes {
		if strings.Contains(lowered, excluded) {
			return false
		}
	}
	return true
}

func (m *dailyModel) trailingAverage(unlocked map[time.Time]int64, asOf time.Time) decimal.Decimal {
	sum := decimal.Zero
	start := asOf.AddDate(0, 0, -m.cfg.TrailingWindowDays)
	for day, cents := range unlocked {
		if day.After(start) && !day.After(asOf) {
			sum = sum.Add(decimal.NewFromInt(cents))
		}
	}
	return sum.Div(decimal.NewFromInt(int64(m.cfg.TrailingWindowDays)))
}

// weekdayProfile is the mean unlock per weekday over the trailing window.
// Weekdays with no observations fall back to the overall daily average so a
// sparse history never zeroes out entire days.
func (m *dailyModel) weekdayProfile(unlocked map[time.Time]int64, asOf time.Time, fallback decimal.Decimal) map[time.Weekday]decimal.Decimal {
	sums := make(map[time.Weekday]decimal.Decimal)
	counts := make(map[time.Weekday]int64)

	start := asOf.AddDate(0, 0, -m.cfg.TrailingWindowDays)
	for day := start.AddDate(0, 0, 1); !day.After(asOf); day = day.AddDate(0, 0, 1) {
		wd := day.Weekday()
		counts[wd]++
		if cents, ok := unlocked[day]; ok {
			sums[wd] = sums[wd].Add(decimal.NewFromInt(cents))
		}
	}

	profile := make(map[time.Weekday]decimal.Decimal, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if counts[wd] == 0 || sums[wd].IsZero() {
			profile[wd] = fallback
			continue
		}
		profile[wd] = sums[wd].Div(decimal.NewFromInt(counts[wd]))
	}
	return profile
}

// growthFactor compares the last seven days of unlocks against the seven
// days before. A zero prior week yields a neutral 1.0.
func (m *dailyModel) growthFactor(unlocked map[time.Time]int64, asOf time.Time) decimal.Decimal {
	var recent, prior decimal.Decimal
	recentStart := asOf.AddDate(0, 0, -7)
	priorStart := asOf.AddDate(0, 0, -14)
	for day, cents := range unlocked {
		switch {
		case day.After(recentStart) && !day.After(asOf):
			recent = recent.Add(decimal.NewFromInt(cents))
		case day.After(priorStart) && !day.After(recentStart):
			prior = prior.Add(decimal.NewFromInt(cents))
		}
	}
	if prior.IsZero() {
		return decimal.NewFromInt(1)
	}
	return recent.Div(prior)
}
