// Command seed_data populates a development environment with fake
// facilities, stock levels and a year of synthetic demand history so
// the forecaster has something to train on.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/db"
	"github.com/openbloodbank/openbloodbank/internal/forecasting"
	"github.com/openbloodbank/openbloodbank/internal/history"
	"github.com/openbloodbank/openbloodbank/internal/inventory"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

var (
	locationCount = flag.Int("locations", 3, "number of facilities to create")
	historyDays   = flag.Int("days", 365, "days of demand history per blood type")
	seed          = flag.Int64("seed", time.Now().UnixNano(), "rng seed for stock jitter")
	skipHistory   = flag.Bool("skip-history", false, "skip writing demand history to clickhouse")
)

var cities = []string{"Mumbai", "Pune", "Nagpur", "Nashik", "Thane", "Aurangabad"}

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	r := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	existing, err := pg.LoadLocations(ctx)
	if err != nil {
		logger.Fatal("load locations", zap.Error(err))
	}

	locations := existing
	if len(existing) == 0 {
		for i := 0; i < *locationCount; i++ {
			city := cities[i%len(cities)]
			loc := models.Location{
				Name:     fmt.Sprintf("%s Blood Bank", city),
				City:     city,
				Region:   "Maharashtra",
				Capacity: 500 + r.Intn(500),
			}
			if err := pg.InsertLocation(ctx, &loc); err != nil {
				logger.Fatal("insert location", zap.Error(err))
			}
			locations = append(locations, loc)
		}
		logger.Info("created facilities", zap.Int("count", len(locations)))
	} else {
		logger.Info("facilities already seeded", zap.Int("count", len(existing)))
	}

	// Seed stock around safety levels with some jitter so the evaluator
	// has a mix of urgencies to report.
	for _, loc := range locations {
		for _, bt := range models.AllBloodTypes {
			safety := inventory.DefaultSafetyStock[bt]
			units := safety/2 + r.Intn(safety*2)
			if err := pg.UpsertStockLevel(ctx, loc.ID, bt, units); err != nil {
				logger.Fatal("upsert stock level", zap.Error(err))
			}
		}
	}
	logger.Info("seeded stock levels",
		zap.Int("locations", len(locations)),
		zap.Int("blood_types", len(models.AllBloodTypes)))

	if *skipHistory {
		return
	}

	hist, err := history.InitClickHouse(cfg.ClickHouseDSN, observability.NewNoOpRegistry())
	if err != nil {
		logger.Fatal("connect clickhouse", zap.Error(err))
	}
	defer hist.Close()

	now := time.Now().UTC()
	var rows int
	for _, bt := range models.AllBloodTypes {
		series := forecasting.GenerateSyntheticHistory(bt, *historyDays, now)
		for _, obs := range series {
			// Attribute the whole series to the first facility; demand
			// history is aggregated across locations on read anyway.
			if err := hist.AppendObservation(ctx, locations[0].Name, obs); err != nil {
				logger.Fatal("append observation", zap.Error(err), zap.String("blood_type", string(bt)))
			}
			rows++
		}
	}
	logger.Info("seeded demand history",
		zap.Int("rows", rows),
		zap.Int("days", *historyDays))
}
