package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowcasthq/flowcast-backend/api/controllers"
	"github.com/flowcasthq/flowcast-backend/api/middleware"
	"github.com/flowcasthq/flowcast-backend/internal/accuracy"
	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/internal/projection"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams collects everything the HTTP surface serves.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Redis      pinger
	Projection projection.Service
	Forecast   forecast.Service
	Accuracy   accuracy.Service
	Accounts   forecast.AccountRepository
}

// NewRouter assembles the chi router with the engine's read and write routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.CORS(),
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DB, params.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Account(params.Logger))

		r.Get("/projection", controllers.GetProjection(params.Projection, params.Accounts, params.Logger))

		r.Route("/forecast", func(r chi.Router) {
			r.Get("/", controllers.ListForecasts(params.Forecast, params.Logger))
			r.Post("/generate", controllers.GenerateForecast(params.Forecast, params.Logger))
			r.Post("/confirm", controllers.ConfirmSettlement(params.Forecast, params.Logger))
			r.Get("/accuracy", controllers.GetForecastAccuracy(params.Accuracy, params.Logger))
		})
	})

	return r
}
