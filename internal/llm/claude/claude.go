package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/kdeep17/portfolio-ai/internal/llm"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/trace"
)

// ClaudeExplainer calls the Anthropic Messages API.
type ClaudeExplainer struct {
	cfg      *store.Config
	endpoint string
}

func NewClaudeExplainer(cfg *store.Config) *ClaudeExplainer {
	endpoint := "https://api.anthropic.com/v1/messages"
	// Proxy/bedrock/vertex deployments override via CLAUDE_API_ENDPOINT
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &ClaudeExplainer{cfg: cfg, endpoint: endpoint}
}

func (e *ClaudeExplainer) Explain(ctx context.Context, req llm.Request) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return "", errors.New("CLAUDE_API_KEY missing")
	}

	reqBody := map[string]any{
		"model":  e.cfg.LLM.Model,
		"system": llm.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": llm.BuildPrompt(req)},
		},
		"max_tokens":  e.cfg.LLM.MaxTokens,
		"temperature": e.cfg.LLM.Temperature,
	}

	bb, _ := json.Marshal(reqBody)
	httpReq, _ := http.NewRequestWithContext(ctx, "POST", e.endpoint, bytes.NewReader(bb))
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("claude http %d: %s", resp.StatusCode, string(body))
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", errors.New("empty content")
	}

	return strings.TrimSpace(r.Content[0].Text), nil
}
