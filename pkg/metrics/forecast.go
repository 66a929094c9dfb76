package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ForecastRunMetrics records forecast generation runs per model method.
type ForecastRunMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.GaugeVec
}

// NewForecastRunMetrics registers the forecast metrics on the provided registerer.
func NewForecastRunMetrics(reg prometheus.Registerer) *ForecastRunMetrics {
	if reg == nil {
		return &ForecastRunMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_run_duration_seconds",
		Help:    "Duration of forecast generation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_run_success",
		Help: "Successful forecast generation runs.",
	}, []string{"method"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_run_failure",
		Help: "Failed forecast generation runs.",
	}, []string{"method"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forecast_rows_generated",
		Help: "Forecast rows written by the most recent run.",
	}, []string{"method"})
	reg.MustRegister(duration, success, failure, rows)
	return &ForecastRunMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rows:     rows,
	}
}

// ObserveRun records the outcome of one generation run.
func (f *ForecastRunMetrics) ObserveRun(method string, duration time.Duration, rowCount int, err error) {
	if f == nil || f.duration == nil {
		return
	}
	label := normalizeLabel(method)
	f.duration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		f.failure.WithLabelValues(label).Inc()
		return
	}
	f.success.WithLabelValues(label).Inc()
	f.rows.WithLabelValues(label).Set(float64(rowCount))
}
