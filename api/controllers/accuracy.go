package controllers

import (
	"net/http"

	"github.com/flowcasthq/flowcast-backend/api/middleware"
	"github.com/flowcasthq/flowcast-backend/api/responses"
	"github.com/flowcasthq/flowcast-backend/internal/accuracy"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

// GetForecastAccuracy reports how the scoped account's past forecasts held
// up against realized payouts.
func GetForecastAccuracy(svc accuracy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accuracy service unavailable"))
			return
		}

		report, err := svc.Analyze(ctx, middleware.AccountIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
