package api

import (
	"net/http"

	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/simulation"
)

// HealthHandler reports liveness plus which optional collaborators are
// wired. It never fails the probe on a degraded dependency; the service
// serves forecasts from fallbacks either way.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status     string `json:"status"`
		Redis      bool   `json:"redis"`
		Postgres   bool   `json:"postgres"`
		ClickHouse bool   `json:"clickhouse"`
	}
	s.writeJSON(w, health{
		Status:     "ok",
		Redis:      s.Store != nil,
		Postgres:   s.PG != nil,
		ClickHouse: s.History != nil,
	})
}

// ScenariosHandler lists the recognized simulation scenarios and
// severities so clients can populate pickers without hard-coding them.
func (s *Server) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	type catalog struct {
		Scenarios  []models.Scenario  `json:"scenarios"`
		Severities []models.Severity  `json:"severities"`
		BloodTypes []models.BloodType `json:"blood_types"`
	}
	s.writeJSON(w, catalog{
		Scenarios:  simulation.Scenarios(),
		Severities: []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh},
		BloodTypes: models.AllBloodTypes,
	})
}
