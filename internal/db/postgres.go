package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS locations (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    city TEXT NOT NULL,
    region TEXT,
    capacity INT NOT NULL DEFAULT 0,
    lat DOUBLE PRECISION,
    lon DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS stock_levels (
    location_id INT NOT NULL REFERENCES locations(id),
    blood_type TEXT NOT NULL,
    units INT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (location_id, blood_type)
);

CREATE TABLE IF NOT EXISTS safety_stock_overrides (
    location_id INT NOT NULL REFERENCES locations(id),
    blood_type TEXT NOT NULL,
    units INT NOT NULL,
    PRIMARY KEY (location_id, blood_type)
);

CREATE INDEX IF NOT EXISTS idx_stock_levels_blood_type ON stock_levels (blood_type);
`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema() error {
	ctx := context.Background()
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadLocations retrieves all registered facilities.
func (p *Postgres) LoadLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, name, city, COALESCE(region, ''), capacity, COALESCE(lat, 0), COALESCE(lon, 0) FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var locs []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.Region, &l.Capacity, &l.Lat, &l.Lon); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locs = append(locs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return locs, nil
}

// InsertLocation inserts a new facility and returns the generated ID.
func (p *Postgres) InsertLocation(ctx context.Context, l *models.Location) error {
	err := p.DB.QueryRowContext(ctx, `INSERT INTO locations (name, city, region, capacity, lat, lon) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		l.Name, l.City, l.Region, l.Capacity, l.Lat, l.Lon).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// LoadStockLevels retrieves persisted stock rows joined with location names.
func (p *Postgres) LoadStockLevels(ctx context.Context) ([]models.StockLevel, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT s.location_id, l.name, s.blood_type, s.units FROM stock_levels s JOIN locations l ON l.id = s.location_id ORDER BY s.location_id, s.blood_type`)
	if err != nil {
		return nil, fmt.Errorf("query stock levels: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var levels []models.StockLevel
	for rows.Next() {
		var s models.StockLevel
		var bt string
		if err := rows.Scan(&s.LocationID, &s.Location, &bt, &s.Units); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		s.BloodType = models.BloodType(bt)
		levels = append(levels, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return levels, nil
}

// UpsertStockLevel persists the durable copy of a stock counter.
func (p *Postgres) UpsertStockLevel(ctx context.Context, locationID int, bt models.BloodType, units int) error {
	_, err := p.DB.ExecContext(ctx, `INSERT INTO stock_levels (location_id, blood_type, units, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (location_id, blood_type) DO UPDATE SET units = $3, updated_at = NOW()`,
		locationID, string(bt), units)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// SaveStockLevel persists the durable copy of a stock counter keyed by
// location name. An unknown location is an error so counter updates
// never silently vanish.
func (p *Postgres) SaveStockLevel(ctx context.Context, location string, bt models.BloodType, units int) error {
	res, err := p.DB.ExecContext(ctx, `INSERT INTO stock_levels (location_id, blood_type, units, updated_at)
        SELECT id, $2, $3, NOW() FROM locations WHERE name = $1
        ON CONFLICT (location_id, blood_type) DO UPDATE SET units = $3, updated_at = NOW()`,
		location, string(bt), units)
	if err != nil {
		return fmt.Errorf("save stock level: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save stock level: unknown location %q", location)
	}
	return nil
}

// LoadSafetyStockOverrides returns per-deployment safety stock
// overrides keyed by location name then blood type. Absent entries
// fall back to the default table.
func (p *Postgres) LoadSafetyStockOverrides(ctx context.Context) (map[string]map[models.BloodType]int, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT l.name, o.blood_type, o.units FROM safety_stock_overrides o JOIN locations l ON l.id = o.location_id`)
	if err != nil {
		return nil, fmt.Errorf("query safety stock overrides: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[string]map[models.BloodType]int)
	for rows.Next() {
		var loc, bt string
		var units int
		if err := rows.Scan(&loc, &bt, &units); err != nil {
			return nil, fmt.Errorf("scan safety stock override: %w", err)
		}
		if out[loc] == nil {
			out[loc] = make(map[models.BloodType]int)
		}
		out[loc][models.BloodType(bt)] = units
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
