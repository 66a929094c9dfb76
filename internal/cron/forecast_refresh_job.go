package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

// ForecastRefreshJobParams configures the nightly forecast regeneration.
type ForecastRefreshJobParams struct {
	Logger    *logger.Logger
	Accounts  accountLister
	Forecasts forecastGenerator
}

type accountLister interface {
	ListWithConfirmedPayouts(ctx context.Context) ([]models.Account, error)
}

type forecastGenerator interface {
	Generate(ctx context.Context, input forecast.GenerateInput) ([]models.Payout, error)
}

// NewForecastRefreshJob constructs the forecast refresh cron job.
func NewForecastRefreshJob(params ForecastRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if params.Forecasts == nil {
		return nil, fmt.Errorf("forecast service required")
	}
	return &forecastRefreshJob{
		logg:      params.Logger,
		accounts:  params.Accounts,
		forecasts: params.Forecasts,
		now:       time.Now,
	}, nil
}

type forecastRefreshJob struct {
	logg      *logger.Logger
	accounts  accountLister
	forecasts forecastGenerator
	now       func() time.Time
}

func (j *forecastRefreshJob) Name() string {
	return "forecast-refresh"
}

// Run regenerates the forecast set for every account that has settlement
// history. Accounts that still lack the minimum history are skipped, not
// failed; any other per-account error is collected and the job keeps going.
func (j *forecastRefreshJob) Run(ctx context.Context) error {
	accounts, err := j.accounts.ListWithConfirmedPayouts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	asOf := j.now().UTC()
	var errs error
	refreshed := 0
	for _, account := range accounts {
		_, err := j.forecasts.Generate(ctx, forecast.GenerateInput{
			AccountID: account.ID,
			AsOf:      asOf,
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientHistory {
				j.logg.Warn(j.logg.WithAccountID(ctx, account.ID.String()),
					"skipping account without enough payout history")
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("account %s: %w", account.ID, err))
			continue
		}
		refreshed++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"accounts":  len(accounts),
		"refreshed": refreshed,
	}), "forecast refresh cycle finished")
	return errs
}
