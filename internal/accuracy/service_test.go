package accuracy

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func sample(date time.Time, method enums.ForecastMethod, forecastCents, actualCents int64) Sample {
	return Sample{
		PayoutDate:    date,
		Method:        &method,
		ForecastCents: forecastCents,
		ActualCents:   actualCents,
	}
}

func near(t *testing.T, got, want, tolerance float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s = %f, want %f", label, got, want)
	}
}

func TestCompute_ExcludesGrossOutlier(t *testing.T) {
	samples := []Sample{
		sample(day(2026, time.April, 1), enums.ForecastMethodSeasonalBiweekly, 10_000, 10_000),
		sample(day(2026, time.April, 15), enums.ForecastMethodSeasonalBiweekly, 10_000, 11_000),
		sample(day(2026, time.April, 29), enums.ForecastMethodSeasonalBiweekly, 10_000, 9_000),
		sample(day(2026, time.May, 13), enums.ForecastMethodSeasonalBiweekly, 100_000, 10_000),
	}

	report := Compute(samples)

	if !report.HasData {
		t.Fatal("expected a populated report")
	}
	if report.SampleCount != 4 || report.UsedCount != 3 || report.ExcludedOutliers != 1 {
		t.Fatalf("counts = %d/%d/%d, want 4/3/1",
			report.SampleCount, report.UsedCount, report.ExcludedOutliers)
	}

	// Surviving absolute errors: 0%, 9.0909%, 11.1111%.
	near(t, report.MAPEPct, 6.7340, 0.001, "MAPE")
	near(t, report.AccuracyPct, 93.2660, 0.001, "accuracy")
	// Surviving absolute dollar errors: 0, 1000, 1000 cents.
	near(t, report.MeanAbsErrorCents, 666.6667, 0.001, "mean abs error")
	if report.BiasCents != 0 {
		t.Errorf("bias cents = %d, want 0", report.BiasCents)
	}
}

func TestCompute_BiasRelativeToMeanActual(t *testing.T) {
	samples := []Sample{
		sample(day(2026, time.April, 1), enums.ForecastMethodDaily, 20_000, 10_000),
		sample(day(2026, time.April, 15), enums.ForecastMethodDaily, 100_000, 100_000),
	}

	report := Compute(samples)

	if report.BiasCents != 5_000 {
		t.Fatalf("bias cents = %d, want 5000", report.BiasCents)
	}
	// Mean signed error 5000 over mean actual 55000, not the 50% a
	// per-record ratio average would give.
	near(t, report.BiasPct, 9.0909, 0.001, "bias pct")
}

func TestCompute_ZeroActualCountsAsZeroError(t *testing.T) {
	samples := []Sample{
		sample(day(2026, time.April, 1), enums.ForecastMethodDaily, 10_000, 10_000),
		sample(day(2026, time.April, 15), enums.ForecastMethodDaily, 5_000, 0),
	}

	report := Compute(samples)

	if report.UsedCount != 2 {
		t.Fatalf("used = %d, want 2", report.UsedCount)
	}
	near(t, report.MAPEPct, 0, 0.001, "MAPE")
	near(t, report.AccuracyPct, 100, 0.001, "accuracy")
	if math.IsInf(report.BiasPct, 0) || math.IsNaN(report.BiasPct) {
		t.Fatalf("bias pct must stay finite, got %f", report.BiasPct)
	}
}

func TestCompute_TwoSamplesNeverFilteredToZero(t *testing.T) {
	samples := []Sample{
		sample(day(2026, time.April, 1), enums.ForecastMethodDaily, 10_000, 10_000),
		sample(day(2026, time.April, 2), enums.ForecastMethodDaily, 100_000, 10_000),
	}

	report := Compute(samples)

	if report.UsedCount != 2 {
		t.Fatalf("used = %d, want all 2 when below the filter floor", report.UsedCount)
	}
	if report.ExcludedOutliers != 0 {
		t.Errorf("excluded = %d, want 0", report.ExcludedOutliers)
	}
	// Errors 0% and 900% average to 450%.
	near(t, report.MAPEPct, 450, 0.001, "MAPE")
	if report.AccuracyPct != 0 {
		t.Errorf("accuracy = %f, want floor at 0", report.AccuracyPct)
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	report := Compute(nil)

	if report.HasData {
		t.Error("expected HasData=false")
	}
	if report.SampleCount != 0 || report.UsedCount != 0 {
		t.Error("expected zero counts")
	}
	if report.ByMethod == nil || report.MonthlyTrend == nil {
		t.Error("maps and slices must be non-nil in the empty report")
	}
	if len(report.Insights) == 0 {
		t.Error("empty report still carries an insight")
	}
}

func TestCompute_ImprovementAndBias(t *testing.T) {
	samples := []Sample{
		sample(day(2026, time.January, 15), enums.ForecastMethodSeasonalBiweekly, 12_000, 10_000),
		sample(day(2026, time.February, 15), enums.ForecastMethodSeasonalBiweekly, 12_000, 10_000),
		sample(day(2026, time.March, 15), enums.ForecastMethodSeasonalBiweekly, 11_000, 10_000),
		sample(day(2026, time.April, 15), enums.ForecastMethodSeasonalBiweekly, 11_000, 10_000),
	}

	report := Compute(samples)

	if report.UsedCount != 4 {
		t.Fatalf("used = %d, want 4", report.UsedCount)
	}
	// Earlier half 20% error, recent half 10%.
	near(t, report.ImprovementPct, 10, 0.001, "improvement")
	near(t, report.BiasPct, 15, 0.001, "bias pct")
	if report.BiasCents != 1_500 {
		t.Errorf("bias cents = %d, want 1500", report.BiasCents)
	}

	foundOvershoot := false
	foundImproving := false
	for _, insight := range report.Insights {
		if insight == "Forecasts consistently overshoot realized payouts; a more conservative risk tier would narrow the gap." {
			foundOvershoot = true
		}
		if insight == "Accuracy is improving across recent payout cycles." {
			foundImproving = true
		}
	}
	if !foundOvershoot || !foundImproving {
		t.Errorf("insights missing expected entries: %v", report.Insights)
	}

	if len(report.MonthlyTrend) != 4 {
		t.Fatalf("monthly buckets = %d, want 4", len(report.MonthlyTrend))
	}
	if report.MonthlyTrend[0].Month != "2026-01" || report.MonthlyTrend[3].Month != "2026-04" {
		t.Errorf("monthly trend out of order: %v", report.MonthlyTrend)
	}
}

func TestCompute_MethodBreakdown(t *testing.T) {
	samples := []Sample{
		sample(day(2026, time.April, 1), enums.ForecastMethodDaily, 10_500, 10_000),
		sample(day(2026, time.April, 2), enums.ForecastMethodDaily, 10_500, 10_000),
		sample(day(2026, time.April, 15), enums.ForecastMethodSeasonalBiweekly, 9_000, 10_000),
		{PayoutDate: day(2026, time.April, 20), ForecastCents: 10_000, ActualCents: 10_000},
	}

	report := Compute(samples)

	daily, ok := report.ByMethod[string(enums.ForecastMethodDaily)]
	if !ok {
		t.Fatal("missing daily bucket")
	}
	if daily.Samples != 2 {
		t.Errorf("daily samples = %d, want 2", daily.Samples)
	}
	near(t, daily.MAPEPct, 5, 0.001, "daily MAPE")

	seasonal := report.ByMethod[string(enums.ForecastMethodSeasonalBiweekly)]
	near(t, seasonal.MAPEPct, 10, 0.001, "seasonal MAPE")
	near(t, seasonal.BiasPct, -10, 0.001, "seasonal bias")

	if _, ok := report.ByMethod["unknown"]; !ok {
		t.Error("rows without a recorded method land in the unknown bucket")
	}
}

type fakeSampleRepo struct {
	rows []models.Payout
	err  error
}

func (f *fakeSampleRepo) ListMatched(ctx context.Context, accountID uuid.UUID) ([]models.Payout, error) {
	return f.rows, f.err
}

func TestService_AnalyzeSkipsUnmatchableRows(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	original := int64(10_000)
	method := enums.ForecastMethodSeasonalBiweekly
	repo := &fakeSampleRepo{rows: []models.Payout{
		{
			PayoutDate:            day(2026, time.April, 1),
			TotalAmountCents:      10_000,
			Method:                &method,
			OriginalForecastCents: &original,
		},
		// No original forecast: not a matched pair.
		{PayoutDate: day(2026, time.April, 15), TotalAmountCents: 9_000},
		// Zero actual: kept, counts as a zero-error record.
		{PayoutDate: day(2026, time.April, 29), TotalAmountCents: 0, OriginalForecastCents: &original},
		// Negative actual: malformed row, dropped.
		{PayoutDate: day(2026, time.May, 13), TotalAmountCents: -1_000, OriginalForecastCents: &original},
	}}

	svc, err := NewService(logg, repo)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	report, err := svc.Analyze(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if report.SampleCount != 2 {
		t.Fatalf("sample count = %d, want 2", report.SampleCount)
	}
	near(t, report.AccuracyPct, 100, 0.001, "accuracy")
}
