package noop

import (
	"context"

	"github.com/kdeep17/portfolio-ai/internal/llm"
	"github.com/kdeep17/portfolio-ai/internal/logger"
)

// NoopExplainer is the fallback used when no LLM provider is configured.
type NoopExplainer struct{}

func NewNoopExplainer() *NoopExplainer {
	return &NoopExplainer{}
}

// Explain returns the verdict's technical reason verbatim.
func (e *NoopExplainer) Explain(ctx context.Context, req llm.Request) (string, error) {
	logger.Debug(ctx, "Noop explainer called - echoing technical reason", "symbol", req.Symbol)
	return req.Reason, nil
}
