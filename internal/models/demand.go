package models

import (
	"time"
)

// DemandObservation is a single day of recorded demand for one blood
// type. Observations are immutable once recorded; feature engineering
// derives from sequences of them without mutation.
type DemandObservation struct {
	Date      time.Time `json:"date"`
	BloodType BloodType `json:"blood_type"`
	Demand    int       `json:"observed_demand"`
	DayOfWeek int       `json:"day_of_week"` // 0=Monday .. 6=Sunday
	Month     int       `json:"month"`       // 1-12
	IsWeekend bool      `json:"is_weekend"`
	IsHoliday bool      `json:"is_holiday"`
}

// NewObservation fills the derived calendar fields from the date.
func NewObservation(date time.Time, bt BloodType, demand int, holiday bool) DemandObservation {
	dow := int(date.Weekday()+6) % 7 // shift so Monday=0
	return DemandObservation{
		Date:      date,
		BloodType: bt,
		Demand:    demand,
		DayOfWeek: dow,
		Month:     int(date.Month()),
		IsWeekend: dow >= 5,
		IsHoliday: holiday,
	}
}

// ForecastPoint is one day of the forecast horizon.
// Invariant: 0 <= ConfidenceLower <= PredictedDemand <= ConfidenceUpper.
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	PredictedDemand int       `json:"predicted_demand"`
	ConfidenceLower int       `json:"confidence_lower"`
	ConfidenceUpper int       `json:"confidence_upper"`
}

// ForecastResult is the full horizon forecast for one blood type. The
// caller owns the result; the forecaster keeps no reference to it.
type ForecastResult struct {
	BloodType       BloodType       `json:"blood_type"`
	Points          []ForecastPoint `json:"points"`
	ConfidenceScore float64         `json:"confidence_score"` // 0-100
	UsedFallback    bool            `json:"used_fallback,omitempty"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// TrainingSummary reports the outcome of a train call.
// StoredObservations is the history depth in the observation log at
// training time; zero when no log is configured.
type TrainingSummary struct {
	BloodType          BloodType `json:"blood_type"`
	Samples            int       `json:"training_samples"`
	ResidualStd        float64   `json:"residual_std"`
	Synthetic          bool      `json:"synthetic_history,omitempty"`
	StoredObservations int       `json:"stored_observations,omitempty"`
	TrainedAt          time.Time `json:"trained_at"`
}
