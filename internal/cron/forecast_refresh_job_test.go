package cron

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

type fakeAccountLister struct {
	accounts []models.Account
	err      error
}

func (f *fakeAccountLister) ListWithConfirmedPayouts(ctx context.Context) ([]models.Account, error) {
	return f.accounts, f.err
}

type fakeForecastGenerator struct {
	calls  []forecast.GenerateInput
	errFor map[uuid.UUID]error
}

func (f *fakeForecastGenerator) Generate(ctx context.Context, input forecast.GenerateInput) ([]models.Payout, error) {
	f.calls = append(f.calls, input)
	if err, ok := f.errFor[input.AccountID]; ok {
		return nil, err
	}
	return []models.Payout{{AccountID: input.AccountID}}, nil
}

func refreshTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestForecastRefreshJob_RefreshesEveryAccount(t *testing.T) {
	accounts := []models.Account{
		{ID: uuid.New()},
		{ID: uuid.New()},
		{ID: uuid.New()},
	}
	lister := &fakeAccountLister{accounts: accounts}
	generator := &fakeForecastGenerator{}

	job, err := NewForecastRefreshJob(ForecastRefreshJobParams{
		Logger:    refreshTestLogger(),
		Accounts:  lister,
		Forecasts: generator,
	})
	if err != nil {
		t.Fatalf("NewForecastRefreshJob: %v", err)
	}

	asOf := time.Date(2026, 7, 15, 2, 0, 0, 0, time.UTC)
	job.(*forecastRefreshJob).now = func() time.Time { return asOf }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(generator.calls) != 3 {
		t.Fatalf("generated for %d accounts, want 3", len(generator.calls))
	}
	for _, call := range generator.calls {
		if !call.AsOf.Equal(asOf) {
			t.Errorf("call asOf = %s, want %s", call.AsOf, asOf)
		}
		if call.Method != nil {
			t.Error("refresh must use each account's configured method")
		}
	}
}

func TestForecastRefreshJob_SkipsInsufficientHistory(t *testing.T) {
	thin := uuid.New()
	healthy := uuid.New()
	lister := &fakeAccountLister{accounts: []models.Account{{ID: thin}, {ID: healthy}}}
	generator := &fakeForecastGenerator{errFor: map[uuid.UUID]error{
		thin: pkgerrors.New(pkgerrors.CodeInsufficientHistory, "not enough confirmed payouts"),
	}}

	job, err := NewForecastRefreshJob(ForecastRefreshJobParams{
		Logger:    refreshTestLogger(),
		Accounts:  lister,
		Forecasts: generator,
	})
	if err != nil {
		t.Fatalf("NewForecastRefreshJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("insufficient history must not fail the job, got %v", err)
	}
	if len(generator.calls) != 2 {
		t.Fatalf("expected both accounts attempted, got %d", len(generator.calls))
	}
}

func TestForecastRefreshJob_CollectsOtherErrors(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	lister := &fakeAccountLister{accounts: []models.Account{{ID: broken}, {ID: healthy}}}
	generator := &fakeForecastGenerator{errFor: map[uuid.UUID]error{
		broken: fmt.Errorf("connection reset"),
	}}

	job, err := NewForecastRefreshJob(ForecastRefreshJobParams{
		Logger:    refreshTestLogger(),
		Accounts:  lister,
		Forecasts: generator,
	})
	if err != nil {
		t.Fatalf("NewForecastRefreshJob: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected the per-account error to surface")
	}
	if len(generator.calls) != 2 {
		t.Fatalf("a failing account must not stop the sweep, got %d calls", len(generator.calls))
	}
}
