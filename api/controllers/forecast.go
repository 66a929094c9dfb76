package controllers

import (
	"net/http"
	"time"

	"github.com/flowcasthq/flowcast-backend/api/middleware"
	"github.com/flowcasthq/flowcast-backend/api/responses"
	"github.com/flowcasthq/flowcast-backend/api/validators"
	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

type generateForecastRequest struct {
	Method *string `json:"method,omitempty" validate:"omitempty,oneof=daily seasonal_biweekly"`
	AsOf   *string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// GenerateForecast regenerates the scoped account's forecast set.
func GenerateForecast(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		var req generateForecastRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		input := forecast.GenerateInput{
			AccountID: middleware.AccountIDFromContext(ctx),
			AsOf:      time.Now().UTC(),
		}
		if req.AsOf != nil {
			asOf, err := time.Parse("2006-01-02", *req.AsOf)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "as_of must be an ISO date"))
				return
			}
			input.AsOf = asOf.UTC()
		}
		if req.Method != nil {
			method, err := enums.ParseForecastMethod(*req.Method)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid forecast method"))
				return
			}
			input.Method = &method
		}

		payouts, err := svc.Generate(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payouts)
	}
}

// ListForecasts returns the scoped account's current forecast set.
func ListForecasts(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		payouts, err := svc.List(ctx, middleware.AccountIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts)
	}
}

type confirmSettlementRequest struct {
	PayoutDate       string `json:"payout_date" validate:"required,datetime=2006-01-02"`
	TotalAmountCents int64  `json:"total_amount_cents" validate:"required,gt=0"`
}

// ConfirmSettlement records a realized payout against the forecast set.
func ConfirmSettlement(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		var req confirmSettlementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payoutDate, err := time.Parse("2006-01-02", req.PayoutDate)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "payout_date must be an ISO date"))
			return
		}

		payout, err := svc.ConfirmSettlement(ctx, forecast.ConfirmInput{
			AccountID:        middleware.AccountIDFromContext(ctx),
			PayoutDate:       payoutDate.UTC(),
			TotalAmountCents: req.TotalAmountCents,
			AsOf:             time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}
