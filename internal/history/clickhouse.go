// Package history persists daily demand observations in ClickHouse and
// serves them back as model training input.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

// Store wraps a ClickHouse connection holding the demand observation log.
type Store struct {
	DB      *sql.DB
	Metrics observability.MetricsRegistry
}

// InitClickHouse connects to ClickHouse and ensures the observation
// table exists.
func InitClickHouse(dsn string, metrics observability.MetricsRegistry) (*Store, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS demand_observations (
       date        Date,
       blood_type  String,
       location    String,
       demand      Int32,
       is_holiday  UInt8
   ) ENGINE=MergeTree() ORDER BY (blood_type, date)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	zap.L().Info("Connected to ClickHouse")
	return &Store{DB: db, Metrics: metrics}, nil
}

// AppendObservation inserts one daily demand row. Observations are
// append-only; corrections insert a fresh row for the same date and the
// read path takes the latest.
func (s *Store) AppendObservation(ctx context.Context, location string, obs models.DemandObservation) error {
	if s == nil || s.DB == nil {
		return models.ErrUnavailable
	}
	stmt := `INSERT INTO demand_observations (date, blood_type, location, demand, is_holiday) VALUES (?, ?, ?, ?, ?)`
	holiday := uint8(0)
	if obs.IsHoliday {
		holiday = 1
	}
	if _, err := s.DB.ExecContext(ctx, stmt, obs.Date, string(obs.BloodType), location, int32(obs.Demand), holiday); err != nil {
		s.Metrics.IncrementHistoryStoreErrors()
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("blood_type", string(obs.BloodType)))
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// DemandHistory returns up to days of daily observations for a blood
// type, aggregated across locations, oldest first. Satisfies the
// forecaster's history provider.
func (s *Store) DemandHistory(ctx context.Context, bt models.BloodType, days int) ([]models.DemandObservation, error) {
	if s == nil || s.DB == nil {
		return nil, models.ErrUnavailable
	}
	query := `SELECT date, sum(demand) AS total, max(is_holiday) AS holiday
        FROM demand_observations
        WHERE blood_type = ? AND date >= today() - ?
        GROUP BY date
        ORDER BY date`
	rows, err := s.DB.QueryContext(ctx, query, string(bt), days)
	if err != nil {
		s.Metrics.IncrementHistoryStoreErrors()
		return nil, fmt.Errorf("query demand history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var history []models.DemandObservation
	for rows.Next() {
		var date time.Time
		var total int64
		var holiday uint8
		if err := rows.Scan(&date, &total, &holiday); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		history = append(history, models.NewObservation(date, bt, int(total), holiday == 1))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return history, nil
}

// ObservationCount returns how many distinct dates of history exist for
// a blood type.
func (s *Store) ObservationCount(ctx context.Context, bt models.BloodType) (int, error) {
	if s == nil || s.DB == nil {
		return 0, models.ErrUnavailable
	}
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT count(DISTINCT date) FROM demand_observations WHERE blood_type = ?`, string(bt)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return count, nil
}

// Close terminates the ClickHouse connection.
func (s *Store) Close() {
	if s != nil && s.DB != nil {
		if err := s.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
