package models

// Scenario names the emergency events the simulator recognizes.
type Scenario string

const (
	ScenarioHighwayAccident Scenario = "highway_accident"
	ScenarioFestival        Scenario = "festival"
	ScenarioDengueOutbreak  Scenario = "dengue_outbreak"
	ScenarioMonsoon         Scenario = "monsoon"
)

// Severity scales a scenario's impact.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ScenarioImpact is the per-blood-type outcome of a simulation.
type ScenarioImpact struct {
	BaselineDemand        int     `json:"baseline_demand"`
	SurgeDemand           int     `json:"surge_demand"`
	AdditionalUnitsNeeded int     `json:"additional_units_needed"`
	PercentageIncrease    float64 `json:"percentage_increase"`
}

// SimulationResult is the full what-if outcome for one scenario run.
type SimulationResult struct {
	Scenario        Scenario                     `json:"scenario"`
	Severity        Severity                     `json:"severity"`
	Impacts         map[BloodType]ScenarioImpact `json:"impacts"`
	Recommendations []string                     `json:"recommendations"`
	PriorityTypes   []BloodType                  `json:"priority_types"`
}
