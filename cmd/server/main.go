package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openbloodbank/openbloodbank/internal/api"
	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/db"
	"github.com/openbloodbank/openbloodbank/internal/forecasting"
	"github.com/openbloodbank/openbloodbank/internal/history"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	store, err := db.InitRedis(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	// Initialize metrics registry
	metricsRegistry := observability.NewPrometheusRegistry()

	hist, err := history.InitClickHouse(cfg.ClickHouseDSN, metricsRegistry)
	if err != nil {
		return fmt.Errorf("failed to connect clickhouse: %w", err)
	}
	defer hist.Close()

	forecaster := forecasting.NewForecaster(cfg, hist, logger, metricsRegistry)

	// Warm all models at startup so the first request does not pay the
	// training cost.
	for _, bt := range models.AllBloodTypes {
		if _, err := forecaster.TrainFromStore(ctx, bt); err != nil {
			logger.Warn("startup training failed", zap.String("blood_type", string(bt)), zap.Error(err))
		}
	}

	srvDeps := api.NewServer(logger, store, pg, hist, forecaster, metricsRegistry, cfg)

	r := mux.NewRouter()
	r.HandleFunc("/forecast", srvDeps.ForecastHandler).Methods("POST")
	r.HandleFunc("/train", srvDeps.TrainHandler).Methods("POST")
	r.HandleFunc("/observations", srvDeps.ObservationHandler).Methods("POST")
	r.HandleFunc("/inventory/status", srvDeps.InventoryHandler).Methods("POST")
	r.HandleFunc("/alerts", srvDeps.AlertsHandler).Methods("GET")
	r.HandleFunc("/inventory/stock", srvDeps.StockHandler).Methods("POST")
	r.HandleFunc("/simulate", srvDeps.SimulateHandler).Methods("POST")
	r.HandleFunc("/scenarios", srvDeps.ScenariosHandler).Methods("GET")
	r.HandleFunc("/redistribution", srvDeps.RedistributionHandler).Methods("POST")
	r.HandleFunc("/health", srvDeps.HealthHandler).Methods("GET")

	// metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port

	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "http.server"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Blood bank forecasting server running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	if cfg.RetrainInterval > 0 {
		ticker := time.NewTicker(cfg.RetrainInterval)
		go func() {
			for {
				select {
				case <-ticker.C:
					for _, bt := range models.AllBloodTypes {
						if _, err := forecaster.TrainFromStore(ctx, bt); err != nil {
							logger.Error("scheduled retrain", zap.String("blood_type", string(bt)), zap.Error(err))
							continue
						}
						if err := store.InvalidateForecasts(bt); err != nil {
							logger.Warn("forecast cache invalidation", zap.Error(err))
						}
					}
				case <-ctx.Done():
					ticker.Stop()
					return
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
