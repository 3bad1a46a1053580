package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/forecasting"
	"github.com/openbloodbank/openbloodbank/internal/history"
	"github.com/openbloodbank/openbloodbank/internal/inventory"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
	"github.com/openbloodbank/openbloodbank/internal/simulation"
)

type ForecastDemandInput struct {
	BloodType string `json:"blood_type"`
	DaysAhead int    `json:"days_ahead,omitempty"`
}

type SimulateScenarioInput struct {
	Scenario string `json:"scenario"`
	Severity string `json:"severity,omitempty"`
}

type InventoryStatusInput struct {
	Location  string         `json:"location"`
	Stock     map[string]int `json:"stock"`
	DaysAhead int            `json:"days_ahead,omitempty"`
}

type InventoryStatusOutput struct {
	OverallHealth models.OverallHealth       `json:"overall_health"`
	Snapshots     []models.InventorySnapshot `json:"snapshots"`
}

// BloodBankServer holds the MCP tool dependencies.
type BloodBankServer struct {
	forecaster *forecasting.Forecaster
	evaluator  *inventory.Evaluator
	simulator  *simulation.Simulator
	logger     *zap.Logger
}

// ForecastDemand exposes the demand forecaster as an MCP tool.
func (s *BloodBankServer) ForecastDemand(ctx context.Context, req *mcp.CallToolRequest, input ForecastDemandInput) (*mcp.CallToolResult, *models.ForecastResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bt, err := models.ParseBloodType(input.BloodType)
	if err != nil {
		return nil, nil, err
	}
	days := input.DaysAhead
	if days == 0 {
		days = 7
	}

	result, err := s.forecaster.Predict(ctx, bt, days)
	if err != nil {
		return nil, nil, fmt.Errorf("forecast %s: %w", bt, err)
	}
	s.logger.Info("forecast tool served",
		zap.String("blood_type", string(bt)),
		zap.Int("days_ahead", days),
		zap.Bool("used_fallback", result.UsedFallback))
	return nil, result, nil
}

// SimulateScenario exposes the emergency simulator as an MCP tool.
func (s *BloodBankServer) SimulateScenario(ctx context.Context, req *mcp.CallToolRequest, input SimulateScenarioInput) (*mcp.CallToolResult, *models.SimulationResult, error) {
	severity := input.Severity
	if severity == "" {
		severity = string(models.SeverityMedium)
	}

	result, err := s.simulator.Simulate(models.Scenario(input.Scenario), models.Severity(severity))
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

// InventoryStatus evaluates supplied stock levels against forecasts.
func (s *BloodBankServer) InventoryStatus(ctx context.Context, req *mcp.CallToolRequest, input InventoryStatusInput) (*mcp.CallToolResult, *InventoryStatusOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if input.Location == "" {
		input.Location = "main"
	}
	days := input.DaysAhead
	if days == 0 {
		days = 7
	}

	var snaps []models.InventorySnapshot
	for raw, units := range input.Stock {
		bt, err := models.ParseBloodType(raw)
		if err != nil {
			return nil, nil, err
		}
		forecast, err := s.forecaster.Predict(ctx, bt, days)
		if err != nil {
			return nil, nil, fmt.Errorf("forecast %s: %w", bt, err)
		}
		snaps = append(snaps, s.evaluator.Evaluate(bt, input.Location, units, 0, forecast))
	}

	return nil, &InventoryStatusOutput{
		OverallHealth: inventory.OverallHealth(snaps),
		Snapshots:     snaps,
	}, nil
}

func main() {
	// Use stderr to avoid stdio conflicts with the MCP transport
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.NameKey = "logger"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("openbloodbank-mcp").With(zap.String("service", "openbloodbank-mcp"))

	logger.Info("Starting OpenBloodBank MCP Server")

	cfg := config.Load()
	metrics := observability.NewNoOpRegistry()

	// History store is optional; forecasting falls back to the synthetic
	// generator when ClickHouse is unreachable.
	var provider forecasting.HistoryProvider
	hist, err := history.InitClickHouse(cfg.ClickHouseDSN, metrics)
	if err != nil {
		logger.Warn("ClickHouse unavailable, forecasting uses synthetic history", zap.Error(err))
	} else {
		defer hist.Close()
		provider = hist
	}

	forecaster := forecasting.NewForecaster(cfg, provider, logger, metrics)

	bbServer := &BloodBankServer{
		forecaster: forecaster,
		evaluator:  inventory.NewEvaluator(cfg, logger, metrics),
		simulator:  simulation.NewSimulator(forecaster, logger, metrics),
		logger:     logger,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "openbloodbank",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "forecast_demand",
		Description: "Forecast daily blood demand for a blood type with confidence bands",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"blood_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"},
					"description": "Blood type to forecast",
				},
				"days_ahead": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"maximum":     30,
					"description": "Forecast horizon in days (optional, defaults to 7)",
				},
			},
			"required": []string{"blood_type"},
		},
	}, bbServer.ForecastDemand)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate_scenario",
		Description: "Estimate surge blood demand for an emergency scenario",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"scenario": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"highway_accident", "festival", "dengue_outbreak", "monsoon"},
					"description": "Emergency scenario to simulate",
				},
				"severity": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"low", "medium", "high"},
					"description": "Scenario severity (optional, defaults to medium)",
				},
			},
			"required": []string{"scenario"},
		},
	}, bbServer.SimulateScenario)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inventory_status",
		Description: "Evaluate blood inventory health against forecast demand",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"location": map[string]interface{}{
					"type":        "string",
					"description": "Facility name (optional, defaults to main)",
				},
				"stock": map[string]interface{}{
					"type":        "object",
					"description": "Current stock units keyed by blood type",
				},
				"days_ahead": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"maximum":     30,
					"description": "Evaluation window in days (optional, defaults to 7)",
				},
			},
			"required": []string{"stock"},
		},
	}, bbServer.InventoryStatus)

	stdioTransport := &mcp.StdioTransport{}

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: stdioTransport,
		Writer:    &logBuffer,
	}

	logger.Info("MCP Server running via stdio with logging enabled")

	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
