package forecast

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
)

// seasonalModel forecasts fixed-cycle settlement payouts. It averages the
// most recent confirmed payouts, then scales by monthly seasonality, a
// 90-day growth trend, 30-day momentum, and the account's risk-tier safety
// multiplier.
type seasonalModel struct {
	cfg config.ForecastConfig
}

func NewSeasonalModel(cfg config.ForecastConfig) Model {
	return &seasonalModel{cfg: cfg}
}

func (m *seasonalModel) Method() enums.ForecastMethod {
	return enums.ForecastMethodSeasonalBiweekly
}

type seasonalInputs struct {
	AvgPayoutCents   int64   `json:"avg_payout_cents"`
	GrowthTrend      float64 `json:"growth_trend"`
	MomentumFactor   float64 `json:"momentum_factor"`
	Seasonality      float64 `json:"seasonality"`
	SafetyMultiplier float64 `json:"safety_multiplier"`
}

func (m *seasonalModel) Generate(_ context.Context, history History) ([]Draft, error) {
	confirmed := make([]models.Payout, len(history.ConfirmedPayouts))
	copy(confirmed, history.ConfirmedPayouts)
	sort.Slice(confirmed, func(i, j int) bool {
		return confirmed[i].PayoutDate.Before(confirmed[j].PayoutDate)
	})

	if len(confirmed) < m.cfg.MinSeasonalHistory {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientHistory,
			"not enough confirmed payouts for the seasonal model").
			WithDetails(map[string]any{
				"required": m.cfg.MinSeasonalHistory,
				"have":     len(confirmed),
			})
	}

	asOf := events.DateOnly(history.AsOf)

	recent := confirmed[len(confirmed)-m.cfg.MinSeasonalHistory:]
	sum := decimal.Zero
	for _, p := range recent {
		sum = sum.Add(decimal.NewFromInt(p.TotalAmountCents))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(recent))))

	growth := windowRatio(confirmed, asOf, 90)
	momentum := windowRatio(confirmed, asOf, 30)
	safety := history.RiskTier.SafetyMultiplier()

	anchor := m.anchorDate(history, asOf)

	drafts := make([]Draft, 0, m.cfg.CyclePeriods)
	for i := 0; i < m.cfg.CyclePeriods; i++ {
		date := anchor.AddDate(0, 0, i*m.cfg.CycleDays)
		seasonality := m.cfg.SeasonalityFor(date.Month())

		amount := avg.Mul(seasonality).Mul(growth).Mul(momentum).Mul(safety)
		cents := amount.Round(0).IntPart()
		if cents < 0 {
			cents = 0
		}

		inputs, err := json.Marshal(seasonalInputs{
			AvgPayoutCents:   avg.Round(0).IntPart(),
			GrowthTrend:      growth.InexactFloat64(),
			MomentumFactor:   momentum.InexactFloat64(),
			Seasonality:      seasonality.InexactFloat64(),
			SafetyMultiplier: safety.InexactFloat64(),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal model inputs")
		}

		drafts = append(drafts, Draft{
			PayoutDate:  date,
			AmountCents: cents,
			ModelInputs: inputs,
		})
	}
	return drafts, nil
}

// anchorDate places the first forecast one full cycle after the latest open
// settlement, falling back to the latest confirmed payout and then to asOf.
// The anchor is always pushed into the future.
func (m *seasonalModel) anchorDate(history History, asOf time.Time) time.Time {
	base := asOf
	if latest := latestByDate(history.OpenPayouts); latest != nil {
		base = events.DateOnly(latest.PayoutDate)
	} else if latest := latestByDate(history.ConfirmedPayouts); latest != nil {
		base = events.DateOnly(latest.PayoutDate)
	}
	anchor := base.AddDate(0, 0, m.cfg.CycleDays)
	for !anchor.After(asOf) {
		anchor = anchor.AddDate(0, 0, m.cfg.CycleDays)
	}
	return anchor
}

func latestByDate(payouts []models.Payout) *models.Payout {
	var latest *models.Payout
	for i := range payouts {
		if latest == nil || payouts[i].PayoutDate.After(latest.PayoutDate) {
			latest = &payouts[i]
		}
	}
	return latest
}

// windowRatio compares mean confirmed amounts in the trailing window against
// the window before it. Either window being empty yields a neutral 1.0.
func windowRatio(confirmed []models.Payout, asOf time.Time, days int) decimal.Decimal {
	recentStart := asOf.AddDate(0, 0, -days)
	priorStart := asOf.AddDate(0, 0, -2*days)

	var recentSum, priorSum decimal.Decimal
	var recentN, priorN int64
	for _, p := range confirmed {
		d := events.DateOnly(p.PayoutDate)
		switch {
		case d.After(recentStart) && !d.After(asOf):
			recentSum = recentSum.Add(decimal.NewFromInt(p.TotalAmountCents))
			recentN++
		case d.After(priorStart) && !d.After(recentStart):
			priorSum = priorSum.Add(decimal.NewFromInt(p.TotalAmountCents))
			priorN++
		}
	}
	if recentN == 0 || priorN == 0 {
		return decimal.NewFromInt(1)
	}
	recentMean := recentSum.Div(decimal.NewFromInt(recentN))
	priorMean := priorSum.Div(decimal.NewFromInt(priorN))
	if priorMean.IsZero() {
		return decimal.NewFromInt(1)
	}
	return recentMean.Div(priorMean)
}
