package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kdeep17/portfolio-ai/internal/logger"
)

// FixtureProvider loads a pre-captured snapshot from a JSON file. Used for
// offline runs and deterministic testing; symbols absent from the file are
// simply missing from the snapshot, which downstream engines treat as
// Insufficient Data.
type FixtureProvider struct {
	path string
}

func NewFixtureProvider(path string) *FixtureProvider {
	return &FixtureProvider{path: path}
}

func (p *FixtureProvider) Fetch(ctx context.Context, symbols []string) (*Snapshot, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read market-data fixture: %w", err)
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(b, snap); err != nil {
		return nil, fmt.Errorf("parse market-data fixture: %w", err)
	}

	missing := 0
	for _, sym := range symbols {
		if _, ok := snap.Fundamentals[sym]; !ok {
			missing++
		}
	}
	logger.Info(ctx, "Market-data fixture loaded",
		"path", p.path,
		"symbols_requested", len(symbols),
		"symbols_missing", missing,
	)
	return snap, nil
}
