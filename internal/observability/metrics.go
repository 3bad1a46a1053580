package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bloodbank_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// forecasts served, labelled by blood type and whether the synthetic
	// fallback model produced them
	ForecastCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_forecasts_total",
			Help: "Total demand forecasts served",
		},
		[]string{"blood_type", "fallback"},
	)

	// model trainings, labelled by blood type
	TrainingCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_trainings_total",
			Help: "Total model training runs",
		},
		[]string{"blood_type"},
	)

	// training duration per blood type
	TrainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bloodbank_training_duration_seconds",
			Help:    "Duration of model training runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"blood_type"},
	)

	// alerts generated, labelled by urgency
	AlertCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_alerts_generated_total",
			Help: "Total alerts generated",
		},
		[]string{"urgency"},
	)

	// current stock percentage gauge per blood type and location
	StockPercentage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bloodbank_stock_percentage",
			Help: "Current stock as a percentage of optimal stock",
		},
		[]string{"blood_type", "location"},
	)

	// scenario simulations, labelled by scenario name
	SimulationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_simulations_total",
			Help: "Total what-if simulations run",
		},
		[]string{"scenario"},
	)

	// redistribution suggestions produced
	RedistributionCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bloodbank_redistribution_suggestions_total",
			Help: "Total redistribution suggestions produced",
		},
	)

	// units proposed for transfer across all suggestions
	RedistributionUnits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bloodbank_redistribution_units_total",
			Help: "Total units proposed for inter-location transfer",
		},
	)

	// number of errors persisting or reading history rows
	HistoryStoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bloodbank_history_store_errors_total",
			Help: "Total demand history store errors",
		},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		ForecastCount,
		TrainingCount,
		TrainingDuration,
		AlertCount,
		StockPercentage,
		SimulationCount,
		RedistributionCount,
		RedistributionUnits,
		HistoryStoreErrors,
	)
}
