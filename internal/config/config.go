package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RedisAddr     string
	ClickHouseDSN string
	PostgresDSN   string
	ServiceName   string

	// Forecasting configuration
	MinHistoryDays   int
	MaxForecastDays  int
	ForestTrees      int
	ForestMaxDepth   int
	BoostRounds      int
	BoostMaxDepth    int
	BoostLearnRate   float64
	HoldoutFraction  float64
	ForecastCacheTTL time.Duration

	// Inventory thresholds. Stock percentage strictly below a threshold
	// falls into that band; the evaluator reads these and never
	// hard-codes literals.
	UrgencyCriticalPct float64
	UrgencyHighPct     float64
	UrgencyMediumPct   float64
	LeadTimeDays       int

	// Alerting
	AlertDemandMultiplier float64

	// Redistribution
	WasteCostPerUnit    float64
	TransferCostPerUnit float64
	RedistMinUnits      int

	// Periodic retraining
	RetrainInterval time.Duration

	// Database connection pooling configuration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8790")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default?async_insert=1&wait_for_async_insert=1")
	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.ServiceName = getenv("SERVICE_NAME", "openbloodbank")

	cfg.MinHistoryDays = envInt("MIN_HISTORY_DAYS", 30)
	cfg.MaxForecastDays = envInt("MAX_FORECAST_DAYS", 30)
	cfg.ForestTrees = envInt("FOREST_TREES", 50)
	cfg.ForestMaxDepth = envInt("FOREST_MAX_DEPTH", 10)
	cfg.BoostRounds = envInt("BOOST_ROUNDS", 50)
	cfg.BoostMaxDepth = envInt("BOOST_MAX_DEPTH", 5)
	cfg.BoostLearnRate = envFloat("BOOST_LEARN_RATE", 0.1)
	cfg.HoldoutFraction = envFloat("HOLDOUT_FRACTION", 0.2)
	cfg.ForecastCacheTTL = envDuration("FORECAST_CACHE_TTL", 10*time.Minute)

	// Urgency thresholds carried over from the reference deployment;
	// configuration, not fixed truth.
	cfg.UrgencyCriticalPct = envFloat("URGENCY_CRITICAL_PCT", 25)
	cfg.UrgencyHighPct = envFloat("URGENCY_HIGH_PCT", 50)
	cfg.UrgencyMediumPct = envFloat("URGENCY_MEDIUM_PCT", 75)
	cfg.LeadTimeDays = envInt("LEAD_TIME_DAYS", 3)

	cfg.AlertDemandMultiplier = envFloat("ALERT_DEMAND_MULTIPLIER", 1.3)

	cfg.WasteCostPerUnit = envFloat("WASTE_COST_PER_UNIT", 50)
	cfg.TransferCostPerUnit = envFloat("TRANSFER_COST_PER_UNIT", 15)
	cfg.RedistMinUnits = envInt("REDIST_MIN_UNITS", 1)

	// default to daily background retraining; 0 disables the loop
	cfg.RetrainInterval = envDuration("RETRAIN_INTERVAL", 24*time.Hour)

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
