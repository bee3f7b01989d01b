// Package pipeline orchestrates one full advisory run: weight recompute,
// market-data fetch, the five scoring engines in dependency order, then
// decision synthesis.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/kdeep17/portfolio-ai/internal/engines/events"
	"github.com/kdeep17/portfolio-ai/internal/engines/opportunity"
	"github.com/kdeep17/portfolio-ai/internal/engines/risk"
	"github.com/kdeep17/portfolio-ai/internal/engines/thesis"
	"github.com/kdeep17/portfolio-ai/internal/engines/valuation"
	"github.com/kdeep17/portfolio-ai/internal/holdings"
	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/synthesis"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Result carries every engine's raw output alongside the final verdicts,
// so the assembler can render diagnostics without re-running anything.
type Result struct {
	Holdings    []types.Holding      `json:"holdings"`
	Snapshot    *marketdata.Snapshot `json:"-"`
	Risk        *risk.Report         `json:"risk"`
	Valuation   *valuation.Report    `json:"valuation"`
	Thesis      *thesis.Report       `json:"thesis"`
	Opportunity *opportunity.Report  `json:"opportunity"`
	Events      *events.Report       `json:"events"`
	Verdicts    []types.Verdict      `json:"verdicts"`
	Actions     types.ActionList     `json:"action_plan"`
}

// Runner is the single entry point the command layer calls.
type Runner interface {
	Run(ctx context.Context, rows []types.Holding) (*Result, error)
}

type Pipeline struct {
	cfg      *store.Config
	provider marketdata.Provider

	risk        *risk.Engine
	valuation   *valuation.Engine
	thesis      *thesis.Engine
	opportunity *opportunity.Engine
	events      *events.Engine
	decision    *synthesis.Engine
}

var _ Runner = (*Pipeline)(nil)

func New(cfg *store.Config, provider marketdata.Provider) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		provider:    provider,
		risk:        risk.New(cfg),
		valuation:   valuation.New(cfg),
		thesis:      thesis.New(cfg),
		opportunity: opportunity.New(cfg),
		events:      events.New(cfg),
		decision:    synthesis.New(cfg),
	}
}

func (p *Pipeline) Run(ctx context.Context, rows []types.Holding) (*Result, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no holdings to analyze")
	}

	// Weights drive every severity threshold downstream; recompute before
	// any engine sees the table.
	if _, err := holdings.RecomputeWeights(rows); err != nil {
		return nil, fmt.Errorf("weight recompute: %w", err)
	}

	symbols := make([]string, 0, len(rows)+len(p.cfg.Sectors.Captains)*3+1)
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	for _, h := range rows {
		add(h.Symbol)
	}
	// Captains feed the valuation benchmarks and the candidate search.
	for _, captains := range p.cfg.Sectors.Captains {
		for _, c := range captains {
			add(c)
		}
	}
	add(p.cfg.Benchmark.Symbol)

	snap, err := p.provider.Fetch(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("market data fetch: %w", err)
	}

	res := &Result{Holdings: rows, Snapshot: snap}

	// Level 1: no cross-dependencies, each engine reads only the snapshot.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		res.Risk = p.risk.Run(rows, snap)
	}()
	go func() {
		defer wg.Done()
		res.Valuation = p.valuation.Run(rows, snap)
	}()
	go func() {
		defer wg.Done()
		res.Thesis = p.thesis.Run(rows, snap)
	}()
	wg.Wait()

	// Level 2: composites over the level-1 reports.
	res.Opportunity = p.opportunity.Run(rows, snap, res.Risk, res.Valuation, res.Thesis)
	res.Events = p.events.Run(rows, snap, res.Thesis)

	// Synthesis.
	res.Verdicts = p.decision.Decide(rows, res.Risk, res.Valuation, res.Thesis, res.Opportunity, res.Events)
	res.Actions = p.decision.Aggregate(res.Verdicts)

	return res, nil
}
