package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kdeep17/portfolio-ai/internal/broker/brokerobs"
	"github.com/kdeep17/portfolio-ai/internal/broker/zerodha"
	"github.com/kdeep17/portfolio-ai/internal/holdings"
	"github.com/kdeep17/portfolio-ai/internal/llm"
	"github.com/kdeep17/portfolio-ai/internal/llm/claude"
	"github.com/kdeep17/portfolio-ai/internal/llm/llmobs"
	"github.com/kdeep17/portfolio-ai/internal/llm/noop"
	"github.com/kdeep17/portfolio-ai/internal/llm/openai"
	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/output"
	"github.com/kdeep17/portfolio-ai/internal/pipeline"
	"github.com/kdeep17/portfolio-ai/internal/pipeline/pipelineobs"
	"github.com/kdeep17/portfolio-ai/internal/quant"
	"github.com/kdeep17/portfolio-ai/internal/runlog"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/trace"
	"github.com/kdeep17/portfolio-ai/internal/types"

	"github.com/joho/godotenv"
)

// initializeSystem initializes the environment, logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads the configuration, falling back to built-in defaults
// when no config file exists.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "No config file found, using defaults", "path", path)
		return store.Default(), nil
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old run logs if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("ADVISOR_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := runlog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// loadHoldings reads the holdings table from the CSV export or, with
// -broker, live from Kite.
func loadHoldings(ctx context.Context, csvPath string, useBroker bool) ([]types.Holding, float64, error) {
	if useBroker {
		brk, err := zerodha.New()
		if err != nil {
			return nil, 0, err
		}
		return brokerobs.Wrap(brk).GetHoldings(ctx)
	}
	return holdings.LoadCSV(csvPath)
}

// initializePipeline builds the full pipeline with observability.
func initializePipeline(ctx context.Context, cfg *store.Config) pipeline.Runner {
	var provider marketdata.Provider
	if cfg.DataSource == "LIVE" {
		logger.Info(ctx, "Using LIVE market data")
		provider = marketdata.NewLiveProvider()
	} else {
		logger.Info(ctx, "Using FIXTURE market data", "path", cfg.FixturePath)
		provider = marketdata.NewFixtureProvider(cfg.FixturePath)
	}

	return pipelineobs.Wrap(pipeline.New(cfg, provider))
}

// initializeExplainer selects the LLM provider with observability.
func initializeExplainer(ctx context.Context, cfg *store.Config) llm.Explainer {
	var explainer llm.Explainer

	switch cfg.LLM.Provider {
	case "OPENAI":
		explainer = openai.NewOpenAIExplainer(cfg)
	case "CLAUDE":
		explainer = claude.NewClaudeExplainer(cfg)
	default:
		explainer = noop.NewNoopExplainer()
		logger.Warn(ctx, "No LLM provider configured - narratives echo technical reasons")
	}

	return llmobs.Wrap(explainer)
}

// attachQuantPanels runs the optional optimization and simulation panels.
func attachQuantPanels(ctx context.Context, cfg *store.Config, rows []types.Holding,
	result *pipeline.Result, report *output.Report, totalValue float64) {

	if !cfg.Quant.Enabled {
		return
	}

	seed := time.Now().UnixNano()
	report.Optimization = quant.NewOptimizer(cfg, seed).Run(rows, result.Snapshot, totalValue)
	report.Simulation = quant.NewSimulator(cfg, seed).Run(rows, result.Snapshot, totalValue)
	logger.Info(ctx, "Quant panels attached",
		"optimization_status", report.Optimization.Status,
	)
}

// attachNarratives generates one short narrative per surfaced action.
func attachNarratives(ctx context.Context, cfg *store.Config, report *output.Report) {
	if len(report.Actions) == 0 {
		return
	}

	sectorBySym := map[string]string{}
	for _, block := range report.Holdings {
		sectorBySym[block.Symbol] = block.Meta.Sector
	}

	explainer := initializeExplainer(ctx, cfg)
	report.Narratives = map[string]string{}
	for _, act := range report.Actions {
		text, err := explainer.Explain(ctx, llm.Request{
			Symbol: act.Symbol,
			Sector: sectorBySym[act.Symbol],
			Action: act.Action,
			Reason: act.Reason,
		})
		if err != nil {
			// A narrative failure never blocks the report.
			text = act.Reason
		}
		report.Narratives[act.Symbol] = text
	}
}
