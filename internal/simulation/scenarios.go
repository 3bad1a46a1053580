package simulation

import (
	"github.com/openbloodbank/openbloodbank/internal/models"
)

// severityBase scales every scenario's impact.
var severityBase = map[models.Severity]float64{
	models.SeverityLow:    1.2,
	models.SeverityMedium: 1.5,
	models.SeverityHigh:   2.0,
}

// scenarioShape is the per-blood-type factor applied on top of the
// severity base. Trauma events skew hard toward O types because O- is
// the universal donor; outbreak and seasonal events hit all types evenly.
var scenarioShape = map[models.Scenario]map[models.BloodType]float64{
	models.ScenarioHighwayAccident: {
		models.OPositive:  1.5,
		models.ONegative:  2.0,
		models.APositive:  1.3,
		models.ANegative:  1.3,
		models.BPositive:  1.2,
		models.BNegative:  1.2,
		models.ABPositive: 1.1,
		models.ABNegative: 1.1,
	},
	models.ScenarioDengueOutbreak: uniformShape(1.8),
	models.ScenarioFestival:       uniformShape(1.3),
	models.ScenarioMonsoon:        uniformShape(1.4),
}

func uniformShape(factor float64) map[models.BloodType]float64 {
	shape := make(map[models.BloodType]float64, len(models.AllBloodTypes))
	for _, bt := range models.AllBloodTypes {
		shape[bt] = factor
	}
	return shape
}

// Multiplier resolves the total demand multiplier for one blood type
// under a scenario and severity. The table is closed: unknown entries
// fail with ErrUnknownScenario.
func Multiplier(scenario models.Scenario, severity models.Severity, bt models.BloodType) (float64, error) {
	base, ok := severityBase[severity]
	if !ok {
		return 0, models.ErrUnknownScenario
	}
	shape, ok := scenarioShape[scenario]
	if !ok {
		return 0, models.ErrUnknownScenario
	}
	return base * shape[bt], nil
}

// Scenarios lists the recognized scenario names.
func Scenarios() []models.Scenario {
	return []models.Scenario{
		models.ScenarioHighwayAccident,
		models.ScenarioFestival,
		models.ScenarioDengueOutbreak,
		models.ScenarioMonsoon,
	}
}
