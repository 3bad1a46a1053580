package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// so components receive metrics by dependency injection instead of
// touching the global Prometheus vars directly.
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Forecasting metrics
	IncrementForecasts(bloodType string, fallback bool)
	IncrementTrainings(bloodType string)
	RecordTrainingDuration(bloodType string, duration time.Duration)

	// Inventory metrics
	IncrementAlerts(urgency string)
	SetStockPercentage(bloodType, location string, pct float64)

	// Simulation metrics
	IncrementSimulations(scenario string)

	// Redistribution metrics
	IncrementRedistributionSuggestions(units int)

	// History store metrics
	IncrementHistoryStoreErrors()
}

// PrometheusRegistry implements MetricsRegistry using the package-level
// Prometheus metrics.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementForecasts(bloodType string, fallback bool) {
	fb := "false"
	if fallback {
		fb = "true"
	}
	ForecastCount.WithLabelValues(bloodType, fb).Inc()
}

func (r *PrometheusRegistry) IncrementTrainings(bloodType string) {
	TrainingCount.WithLabelValues(bloodType).Inc()
}

func (r *PrometheusRegistry) RecordTrainingDuration(bloodType string, duration time.Duration) {
	TrainingDuration.WithLabelValues(bloodType).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementAlerts(urgency string) {
	AlertCount.WithLabelValues(urgency).Inc()
}

func (r *PrometheusRegistry) SetStockPercentage(bloodType, location string, pct float64) {
	StockPercentage.WithLabelValues(bloodType, location).Set(pct)
}

func (r *PrometheusRegistry) IncrementSimulations(scenario string) {
	SimulationCount.WithLabelValues(scenario).Inc()
}

func (r *PrometheusRegistry) IncrementRedistributionSuggestions(units int) {
	RedistributionCount.Inc()
	RedistributionUnits.Add(float64(units))
}

func (r *PrometheusRegistry) IncrementHistoryStoreErrors() {
	HistoryStoreErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementForecasts(bloodType string, fallback bool)                   {}
func (r *NoOpRegistry) IncrementTrainings(bloodType string)                                  {}
func (r *NoOpRegistry) RecordTrainingDuration(bloodType string, duration time.Duration)      {}
func (r *NoOpRegistry) IncrementAlerts(urgency string)                                       {}
func (r *NoOpRegistry) SetStockPercentage(bloodType, location string, pct float64)           {}
func (r *NoOpRegistry) IncrementSimulations(scenario string)                                 {}
func (r *NoOpRegistry) IncrementRedistributionSuggestions(units int)                         {}
func (r *NoOpRegistry) IncrementHistoryStoreErrors()                                         {}
