package controllers

import (
	"net/http"
	"time"

	"github.com/flowcasthq/flowcast-backend/api/middleware"
	"github.com/flowcasthq/flowcast-backend/api/responses"
	"github.com/flowcasthq/flowcast-backend/api/validators"
	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/internal/projection"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

// GetProjection runs the daily balance projection for the scoped account.
// current_balance_cents is required; reserve_cents falls back to the
// account's configured reserve and as_of defaults to today.
func GetProjection(svc projection.Service, accounts forecast.AccountRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projection service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(ctx)

		balance, err := validators.ParseQueryInt64(r, "current_balance_cents", -1)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if balance < 0 {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "current_balance_cents is required"))
			return
		}

		asOf, err := validators.ParseQueryDate(r, "as_of", time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		horizon, err := validators.ParseQueryInt(r, "horizon_days", 0, 0, 366)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reserve, err := validators.ParseQueryInt64(r, "reserve_cents", -1)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if reserve < 0 {
			account, err := accounts.Get(ctx, accountID)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account reserve"))
				return
			}
			reserve = account.ReserveCents
		}

		result, err := svc.Project(ctx, projection.ProjectInput{
			AccountID:           accountID,
			CurrentBalanceCents: balance,
			ReserveCents:        reserve,
			AsOf:                asOf,
			HorizonDays:         horizon,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
