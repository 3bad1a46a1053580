package models

import (
	"time"
)

// UrgencyLevel classifies shortage risk from stock percentage.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// ParseUrgency validates an urgency filter string.
func ParseUrgency(s string) (UrgencyLevel, error) {
	switch u := UrgencyLevel(s); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return u, nil
	}
	return "", &ValidationError{Field: "urgency", Reason: "unknown urgency level: " + s}
}

// UnboundedShortage is the DaysUntilShortage value when the current
// stock never depletes within the forecast window.
const UnboundedShortage = -1

// InventorySnapshot is the per-type health record computed fresh on
// every evaluation; it is never cached across calls with stale stock.
type InventorySnapshot struct {
	BloodType             BloodType    `json:"blood_type"`
	Location              string       `json:"location"`
	CurrentStock          int          `json:"current_stock"`
	SafetyStock           int          `json:"safety_stock"`
	OptimalStock          int          `json:"optimal_stock"`
	PredictedDemandWindow int          `json:"predicted_demand_over_window"`
	DaysUntilShortage     int          `json:"days_until_shortage"` // UnboundedShortage when stock outlasts the window
	ShortageUnbounded     bool         `json:"shortage_unbounded"`
	UrgencyLevel          UrgencyLevel `json:"urgency_level"`
	StockPercentage       float64      `json:"stock_percentage"`
	Recommendation        string       `json:"recommendation"`
}

// Alert is an ephemeral urgency-tagged message produced per request.
// Delivery, throttling and channel selection belong to the external
// notification collaborator.
type Alert struct {
	ID          string       `json:"id"`
	Urgency     UrgencyLevel `json:"urgency"`
	BloodType   BloodType    `json:"blood_type"`
	Message     string       `json:"message"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// RedistributionSuggestion recommends moving surplus units between
// locations. Units never exceed the source's surplus or the
// destination's deficit.
type RedistributionSuggestion struct {
	BloodType        BloodType `json:"blood_type"`
	SourceLocation   string    `json:"source_location"`
	DestLocation     string    `json:"destination_location"`
	Units            int       `json:"units"`
	EstimatedSavings string    `json:"estimated_savings"` // decimal string, currency units
}

// OverallHealth is the fleet-wide rollup of snapshot urgencies.
type OverallHealth string

const (
	HealthHealthy  OverallHealth = "healthy"
	HealthCaution  OverallHealth = "caution"
	HealthWarning  OverallHealth = "warning"
	HealthCritical OverallHealth = "critical"
)

// CollectionPlan recommends a donor drive to cover a projected deficit.
type CollectionPlan struct {
	BloodType       BloodType `json:"blood_type"`
	Schedule        string    `json:"schedule"` // immediate, this_week, next_week
	TargetDonors    int       `json:"target_donors"`
	TargetUnits     int       `json:"target_units"`
	RecommendedDate time.Time `json:"recommended_date"`
	Priority        string    `json:"priority"`
}
