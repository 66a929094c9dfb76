package accuracy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

// minSamplesAfterFilter is the floor below which outlier exclusion is
// abandoned and every sample counts.
const minSamplesAfterFilter = 3

// iqrFenceMultiplier widens the interquartile range to set outlier fences.
const iqrFenceMultiplier = 1.5

// Sample is one matched forecast/actual pair.
type Sample struct {
	PayoutDate    time.Time
	Method        *enums.ForecastMethod
	ForecastCents int64
	ActualCents   int64
}

// MethodStats breaks accuracy down by the model that produced the forecasts.
type MethodStats struct {
	Samples int     `json:"samples"`
	MAPEPct float64 `json:"mape_pct"`
	BiasPct float64 `json:"bias_pct"`
}

// MonthlyStats is one month's accuracy bucket, keyed YYYY-MM.
type MonthlyStats struct {
	Month   string  `json:"month"`
	Samples int     `json:"samples"`
	MAPEPct float64 `json:"mape_pct"`
}

// Report is the full accuracy picture for one account.
type Report struct {
	HasData           bool                   `json:"has_data"`
	SampleCount       int                    `json:"sample_count"`
	UsedCount         int                    `json:"used_count"`
	ExcludedOutliers  int                    `json:"excluded_outliers"`
	MAPEPct           float64                `json:"mape_pct"`
	AccuracyPct       float64                `json:"accuracy_pct"`
	MeanAbsErrorCents float64                `json:"mean_abs_error_cents"`
	BiasCents         int64                  `json:"bias_cents"`
	BiasPct           float64                `json:"bias_pct"`
	ByMethod          map[string]MethodStats `json:"by_method"`
	MonthlyTrend      []MonthlyStats         `json:"monthly_trend"`
	ImprovementPct    float64                `json:"improvement_pct"`
	Insights          []string               `json:"insights"`
}

// Service evaluates how past forecasts performed against realized payouts.
type Service interface {
	Analyze(ctx context.Context, accountID uuid.UUID) (*Report, error)
}

type service struct {
	logg *logger.Logger
	repo SampleRepository
}

// NewService wires an accuracy service from its dependencies.
func NewService(logg *logger.Logger, repo SampleRepository) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sample repository required")
	}
	return &service{logg: logg, repo: repo}, nil
}

func (s *service) Analyze(ctx context.Context, accountID uuid.UUID) (*Report, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	rows, err := s.repo.ListMatched(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load matched payouts")
	}

	samples := make([]Sample, 0, len(rows))
	for _, row := range rows {
		if row.OriginalForecastCents == nil || row.TotalAmountCents < 0 {
			continue
		}
		samples = append(samples, Sample{
			PayoutDate:    row.PayoutDate,
			Method:        row.Method,
			ForecastCents: *row.OriginalForecastCents,
			ActualCents:   row.TotalAmountCents,
		})
	}

	report := Compute(samples)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"account_id": accountID.String(),
		"samples":    report.SampleCount,
		"used":       report.UsedCount,
	}), "accuracy analyzed")
	return report, nil
}

// Compute builds the accuracy report from matched pairs. Gross outlier pairs
// are excluded via the IQR fence unless that would leave fewer than three
// samples, in which case every pair counts.
func Compute(samples []Sample) *Report {
	if len(samples) == 0 {
		return &Report{
			ByMethod:     map[string]MethodStats{},
			MonthlyTrend: []MonthlyStats{},
			Insights:     []string{"No confirmed payouts with matched forecasts yet."},
		}
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PayoutDate.Before(sorted[j].PayoutDate)
	})

	errors := make([]float64, len(sorted))
	for i, sample := range sorted {
		errors[i] = absPctError(sample)
	}

	used, excluded := filterOutliers(sorted, errors)
	report := &Report{
		HasData:          true,
		SampleCount:      len(sorted),
		UsedCount:        len(used),
		ExcludedOutliers: excluded,
		ByMethod:         map[string]MethodStats{},
	}

	var apeSum float64
	var biasCentsSum, absCentsSum, actualCentsSum int64
	for _, sample := range used {
		apeSum += absPctError(sample)
		diff := sample.ForecastCents - sample.ActualCents
		biasCentsSum += diff
		if diff < 0 {
			diff = -diff
		}
		absCentsSum += diff
		actualCentsSum += sample.ActualCents
	}
	n := float64(len(used))
	report.MAPEPct = apeSum / n
	report.AccuracyPct = math.Max(0, 100-report.MAPEPct)
	report.MeanAbsErrorCents = float64(absCentsSum) / n
	report.BiasCents = biasCentsSum / int64(len(used))
	// Bias percent is the mean signed error relative to the mean actual, not
	// a mean of per-record ratios.
	if actualCentsSum != 0 {
		report.BiasPct = float64(biasCentsSum) / float64(actualCentsSum) * 100
	}

	report.ByMethod = methodBreakdown(used)
	report.MonthlyTrend = monthlyTrend(used)
	report.ImprovementPct = improvement(used)
	report.Insights = insights(report)
	return report
}

func absPctError(s Sample) float64 {
	return math.Abs(signedPctError(s))
}

// signedPctError treats a zero actual as a zero-error record rather than an
// undefined ratio.
func signedPctError(s Sample) float64 {
	if s.ActualCents == 0 {
		return 0
	}
	return float64(s.ForecastCents-s.ActualCents) / float64(s.ActualCents) * 100
}

func filterOutliers(samples []Sample, errors []float64) ([]Sample, int) {
	if len(samples) < minSamplesAfterFilter {
		return samples, 0
	}

	sortedErrs := make([]float64, len(errors))
	copy(sortedErrs, errors)
	sort.Float64s(sortedErrs)

	q1 := quantile(sortedErrs, 0.25)
	q3 := quantile(sortedErrs, 0.75)
	fence := iqrFenceMultiplier * (q3 - q1)
	lower, upper := q1-fence, q3+fence

	kept := make([]Sample, 0, len(samples))
	for i, sample := range samples {
		if errors[i] >= lower && errors[i] <= upper {
			kept = append(kept, sample)
		}
	}
	if len(kept) < minSamplesAfterFilter {
		return samples, 0
	}
	return kept, len(samples) - len(kept)
}

// quantile interpolates linearly at position q*(n-1) of an ascending slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func methodBreakdown(used []Sample) map[string]MethodStats {
	type agg struct {
		count  int
		ape    float64
		diff   int64
		actual int64
	}
	byMethod := map[string]*agg{}
	for _, sample := range used {
		key := "unknown"
		if sample.Method != nil {
			key = string(*sample.Method)
		}
		entry, ok := byMethod[key]
		if !ok {
			entry = &agg{}
			byMethod[key] = entry
		}
		entry.count++
		entry.ape += absPctError(sample)
		entry.diff += sample.ForecastCents - sample.ActualCents
		entry.actual += sample.ActualCents
	}

	out := make(map[string]MethodStats, len(byMethod))
	for key, entry := range byMethod {
		stats := MethodStats{
			Samples: entry.count,
			MAPEPct: entry.ape / float64(entry.count),
		}
		if entry.actual != 0 {
			stats.BiasPct = float64(entry.diff) / float64(entry.actual) * 100
		}
		out[key] = stats
	}
	return out
}

func monthlyTrend(used []Sample) []MonthlyStats {
	type agg struct {
		count int
		ape   float64
	}
	byMonth := map[string]*agg{}
	for _, sample := range used {
		key := sample.PayoutDate.Format("2006-01")
		entry, ok := byMonth[key]
		if !ok {
			entry = &agg{}
			byMonth[key] = entry
		}
		entry.count++
		entry.ape += absPctError(sample)
	}

	months := make([]string, 0, len(byMonth))
	for key := range byMonth {
		months = append(months, key)
	}
	sort.Strings(months)

	out := make([]MonthlyStats, 0, len(months))
	for _, month := range months {
		entry := byMonth[month]
		out = append(out, MonthlyStats{
			Month:   month,
			Samples: entry.count,
			MAPEPct: entry.ape / float64(entry.count),
		})
	}
	return out
}

// improvement is the MAPE drop from the earlier half of samples to the
// recent half, in percentage points. Positive means forecasts are getting
// better. Fewer than four samples yields zero.
func improvement(used []Sample) float64 {
	if len(used) < 4 {
		return 0
	}
	mid := len(used) / 2
	earlier, recent := used[:mid], used[mid:]

	var earlierSum, recentSum float64
	for _, sample := range earlier {
		earlierSum += absPctError(sample)
	}
	for _, sample := range recent {
		recentSum += absPctError(sample)
	}
	return earlierSum/float64(len(earlier)) - recentSum/float64(len(recent))
}

func insights(report *Report) []string {
	out := []string{}
	switch {
	case report.AccuracyPct >= 90:
		out = append(out, "Forecast accuracy is excellent; payouts land within 10% of prediction.")
	case report.MAPEPct > 25:
		out = append(out, "Forecast error is high; recent payouts diverge sharply from predictions.")
	}
	switch {
	case report.BiasPct > 10:
		out = append(out, "Forecasts consistently overshoot realized payouts; a more conservative risk tier would narrow the gap.")
	case report.BiasPct < -10:
		out = append(out, "Forecasts consistently undershoot realized payouts; the configured haircut may be too aggressive.")
	}
	if report.ImprovementPct > 5 {
		out = append(out, "Accuracy is improving across recent payout cycles.")
	}
	if report.ExcludedOutliers > 0 {
		out = append(out, fmt.Sprintf("%d outlier settlement(s) excluded from the statistics.", report.ExcludedOutliers))
	}
	return out
}
