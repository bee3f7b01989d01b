package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/output"
	"github.com/kdeep17/portfolio-ai/internal/runlog"
	"github.com/kdeep17/portfolio-ai/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	var (
		configPath   = flag.String("config", "config.yaml", "path to configuration file")
		holdingsPath = flag.String("holdings", "holdings.csv", "path to Zerodha holdings CSV export")
		outPath      = flag.String("out", "report.json", "path to write the advisory report")
		useBroker    = flag.Bool("broker", false, "pull holdings live from Kite instead of the CSV")
	)
	flag.Parse()

	must(initializeSystem())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	defer func() { _ = trace.Shutdown(ctx) }()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)

	compressOldLogs(ctx)

	rows, totalValue, err := loadHoldings(ctx, *holdingsPath, *useBroker)
	must(err)
	logger.Info(ctx, "Holdings loaded", "count", len(rows), "total_value", totalValue)

	runner := initializePipeline(ctx, cfg)
	result, err := runner.Run(ctx, rows)
	must(err)

	asm := output.NewAssembler(cfg)
	report := asm.Assemble(result)

	attachQuantPanels(ctx, cfg, rows, result, report, totalValue)
	attachNarratives(ctx, cfg, report)

	b, err := json.MarshalIndent(report, "", "  ")
	must(err)
	must(os.WriteFile(*outPath, b, 0o644))
	logger.Info(ctx, "Report written", "path", *outPath, "health_score", report.Summary.HealthScore, "bias", result.Actions.Bias)

	_ = runlog.AppendRun(runlog.RunEntry{
		RunID:       report.Metadata.RunID,
		Holdings:    len(rows),
		Actions:     len(result.Actions.Actions),
		Bias:        result.Actions.Bias,
		HealthScore: report.Summary.HealthScore,
		TotalValue:  totalValue,
	})
	_ = runlog.AppendVerdicts(report.Metadata.RunID, result.Verdicts)
}
