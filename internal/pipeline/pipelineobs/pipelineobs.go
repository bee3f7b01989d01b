package pipelineobs

import (
	"context"
	"time"

	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/pipeline"
	"github.com/kdeep17/portfolio-ai/internal/trace"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

type observablePipeline struct {
	runner pipeline.Runner
}

var _ pipeline.Runner = (*observablePipeline)(nil)

func Wrap(r pipeline.Runner) pipeline.Runner {
	return &observablePipeline{
		runner: r,
	}
}

func (op *observablePipeline) Run(ctx context.Context, rows []types.Holding) (*pipeline.Result, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting advisory run",
		"holdings", len(rows),
	)

	result, err := op.runner.Run(ctx, rows)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Advisory run failed", err,
			"holdings", len(rows),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	for _, v := range result.Verdicts {
		if v.Action == types.ActionHold {
			continue
		}
		logger.Verdict(ctx, v.Symbol, string(v.Action), string(v.Urgency), v.Reason)
	}

	logger.InfoSkip(ctx, 1, "Advisory run completed",
		"holdings", len(rows),
		"actions", len(result.Actions.Actions),
		"bias", result.Actions.Bias,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
