package models

import "time"

// ForecastRequest asks for a demand forecast for one blood type.
type ForecastRequest struct {
	BloodType string `json:"blood_type"`
	DaysAhead int    `json:"days_ahead"`
}

// TrainRequest trains one blood type's model, or all of them when
// BloodType is "all" or empty. History is optional; when absent the
// stored observation log (or the synthetic fallback) is used. Retrain
// forces a refit; without it, types that already carry a model keep it.
type TrainRequest struct {
	BloodType string              `json:"blood_type"`
	Retrain   bool                `json:"retrain"`
	History   []ObservationUpload `json:"history,omitempty"`
}

// ObservationUpload is the wire form of a daily demand record.
type ObservationUpload struct {
	Date      time.Time `json:"date"`
	Demand    int       `json:"demand"`
	IsHoliday bool      `json:"is_holiday"`
}

// InventoryRequest evaluates inventory health at a location. Stock is
// optional; when absent the live Redis counters are used.
type InventoryRequest struct {
	Location  string         `json:"location"`
	Stock     map[string]int `json:"stock,omitempty"`
	DaysAhead int            `json:"days_ahead"`
}

// InventoryResponse is the full evaluation for one location.
type InventoryResponse struct {
	Location      string              `json:"location"`
	OverallHealth OverallHealth       `json:"overall_health"`
	Snapshots     []InventorySnapshot `json:"snapshots"`
	Alerts        []Alert             `json:"alerts"`
	Collections   []CollectionPlan    `json:"collection_plans"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// AlertsResponse lists the active alerts for one location.
type AlertsResponse struct {
	Location    string    `json:"location"`
	Alerts      []Alert   `json:"alerts"`
	GeneratedAt time.Time `json:"generated_at"`
}

// StockUpdateRequest adjusts or sets the live stock counter.
type StockUpdateRequest struct {
	Location  string `json:"location"`
	BloodType string `json:"blood_type"`
	Units     *int   `json:"units,omitempty"` // absolute set
	Delta     *int   `json:"delta,omitempty"` // signed adjustment
}

// SimulationRequest runs an emergency scenario.
type SimulationRequest struct {
	Scenario string `json:"scenario"`
	Severity string `json:"severity"`
}

// RedistributionRequest asks for transfer suggestions across the given
// location stocks. When Stocks is empty the persisted levels are used.
type RedistributionRequest struct {
	DaysAhead int                   `json:"days_ahead"`
	Stocks    []LocationStockUpload `json:"stocks,omitempty"`
}

// LocationStockUpload is the wire form of one location's stock for a
// blood type.
type LocationStockUpload struct {
	Location     string `json:"location"`
	BloodType    string `json:"blood_type"`
	CurrentStock int    `json:"current_stock"`
	SafetyStock  int    `json:"safety_stock,omitempty"`
}

// RedistributionResponse lists suggested transfers with total units.
type RedistributionResponse struct {
	Suggestions []RedistributionSuggestion `json:"suggestions"`
	TotalUnits  int                        `json:"total_units"`
	GeneratedAt time.Time                  `json:"generated_at"`
}
