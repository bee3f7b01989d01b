// Package llm defines the narrative explainer contract and the shared
// prompt construction. Providers live in subpackages; the command layer
// picks one from configuration. Explanations are presentation-only and
// never feed back into decision logic.
package llm

import (
	"context"
	"fmt"

	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Request carries the verdict context an explainer turns into prose.
type Request struct {
	Symbol string
	Sector string
	Action types.Action
	Reason string
}

// Explainer produces a short plain-language narrative for one verdict.
type Explainer interface {
	Explain(ctx context.Context, req Request) (string, error)
}

// BuildPrompt composes the per-holding prompt. The task line varies with
// the action so EXIT narratives read differently from status updates.
func BuildPrompt(req Request) string {
	var task string
	switch req.Action {
	case types.ActionExit:
		task = fmt.Sprintf("Explain why selling this %s stock is necessary. Reference the specific issue: '%s'.", req.Sector, req.Reason)
	case types.ActionReplace:
		task = fmt.Sprintf("Explain why swapping this %s stock is smart. Reference the inefficiency: '%s'.", req.Sector, req.Reason)
	default:
		task = fmt.Sprintf("Explain the current status of this %s stock based on: '%s'.", req.Sector, req.Reason)
	}

	return fmt.Sprintf(`You are a cynical Wall Street Analyst explaining to a CEO.
%s

Rules:
1. Mention the ticker %s and its sector (%s).
2. BE SPECIFIC. Do not use generic analogies like "broken engine" or "faulty machine".
3. Use financial tone (e.g., "capital efficiency", "structural headwinds", "valuation mismatch").
4. Max 25 words.

Explanation:`, task, req.Symbol, req.Sector)
}

// SystemPrompt is the shared system message for chat-style providers.
const SystemPrompt = "You are a concise, skeptical equity analyst. Respond with plain prose only, no JSON, no markdown."
