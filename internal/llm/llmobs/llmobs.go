package llmobs

import (
	"context"

	"github.com/kdeep17/portfolio-ai/internal/llm"
	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/trace"
)

// observableExplainer wraps an Explainer with logging and tracing.
type observableExplainer struct {
	explainer llm.Explainer
}

var _ llm.Explainer = (*observableExplainer)(nil)

func Wrap(e llm.Explainer) llm.Explainer {
	return &observableExplainer{
		explainer: e,
	}
}

func (oe *observableExplainer) Explain(ctx context.Context, req llm.Request) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Explain")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting narrative",
		"symbol", req.Symbol,
		"action", req.Action,
	)

	text, err := oe.explainer.Explain(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to generate narrative", err,
			"symbol", req.Symbol,
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Narrative generated",
		"symbol", req.Symbol,
		"action", req.Action,
		"length", len(text),
	)

	return text, nil
}
