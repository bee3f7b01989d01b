// Package valuation measures sector-relative richness. Benchmarks are
// computed once per sector from live captain medians, falling back to
// static multiples; each equity holding is then tiered against its
// benchmark with a PEG-based growth defense.
package valuation

import (
	"fmt"
	"math"
	"sort"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Valuation statuses, ordered roughly by stress.
const (
	StatusInsufficient     = "Insufficient Data"
	StatusNotApplicable    = "Not Applicable"
	StatusUndervalued      = "Undervalued"
	StatusFairValue        = "Fair Value"
	StatusJustifiedPremium = "Justified Premium"
	StatusPremium          = "Premium"
	StatusOvervalued       = "Overvalued"
	StatusHighlyStretched  = "Highly Stretched"
)

// Benchmark sources, kept in the record for audit display.
const (
	SourceCaptains = "Live Sector Captains"
	SourceStatic   = "Static Market Baseline"
)

// HoldingValuation is the typed per-holding verdict.
type HoldingValuation struct {
	Symbol          string   `json:"symbol"`
	Status          string   `json:"valuation_status"`
	StressScore     float64  `json:"stress_score"` // 0-100, higher = more stretched
	Metric          string   `json:"primary_metric,omitempty"`
	MetricValue     *float64 `json:"primary_value,omitempty"`
	BenchmarkValue  float64  `json:"benchmark_value,omitempty"`
	BenchmarkSource string   `json:"benchmark_source,omitempty"`
	PEGRatio        *float64 `json:"peg_ratio,omitempty"`
	Reason          string   `json:"reason"`
}

// Report maps symbol to valuation verdict.
type Report struct {
	Holdings   map[string]HoldingValuation `json:"holdings"`
	Benchmarks map[string]Benchmark        `json:"benchmarks"`
}

// Get returns a neutral record for unknown symbols.
func (r *Report) Get(symbol string) HoldingValuation {
	if r == nil {
		return HoldingValuation{Status: StatusInsufficient}
	}
	if v, ok := r.Holdings[symbol]; ok {
		return v
	}
	return HoldingValuation{Symbol: symbol, Status: StatusInsufficient}
}

// Benchmark is one sector's reference multiple.
type Benchmark struct {
	Sector string  `json:"sector"`
	Metric string  `json:"metric"` // P/E or P/B
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

type Engine struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run pre-computes one benchmark per sector present in the table, then
// tiers every equity holding against it.
func (e *Engine) Run(rows []types.Holding, snap *marketdata.Snapshot) *Report {
	report := &Report{
		Holdings:   map[string]HoldingValuation{},
		Benchmarks: map[string]Benchmark{},
	}

	// Phase 1: benchmarks, one per sector in the portfolio.
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			continue
		}
		info, _ := snap.Info(h.Symbol)
		sector := e.cfg.SectorOf(h.Symbol, info.Industry)
		if _, done := report.Benchmarks[sector]; done {
			continue
		}
		report.Benchmarks[sector] = e.sectorBenchmark(sector, snap)
	}

	// Phase 2: per-holding classification.
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			report.Holdings[h.Symbol] = HoldingValuation{
				Symbol: h.Symbol,
				Status: StatusNotApplicable,
				Reason: "Non-equity instrument",
			}
			continue
		}
		info, _ := snap.Info(h.Symbol)
		sector := e.cfg.SectorOf(h.Symbol, info.Industry)
		report.Holdings[h.Symbol] = e.classify(h.Symbol, info, report.Benchmarks[sector])
	}

	return report
}

// sectorBenchmark returns the median captain multiple for a sector, or the
// static fallback when no captain has usable data. Financials benchmark on
// price/book: earnings multiples are unreliable for lenders and insurers.
func (e *Engine) sectorBenchmark(sector string, snap *marketdata.Snapshot) Benchmark {
	metric := "P/E"
	if sector == "Financials" {
		metric = "P/B"
	}

	var values []float64
	for _, captain := range e.cfg.Sectors.Captains[sector] {
		info, ok := snap.Info(captain)
		if !ok {
			continue
		}
		var v *float64
		if metric == "P/B" {
			v = info.PriceToBook
		} else {
			v = info.TrailingPE
		}
		if v != nil && *v > 0 {
			values = append(values, *v)
		}
	}

	if len(values) > 0 {
		return Benchmark{Sector: sector, Metric: metric, Value: median(values), Source: SourceCaptains}
	}

	if metric == "P/B" {
		return Benchmark{Sector: sector, Metric: metric, Value: e.cfg.Valuation.FallbackPB, Source: SourceStatic}
	}
	fallback, ok := e.cfg.Sectors.FallbackPE[sector]
	if !ok {
		fallback = e.cfg.Valuation.DefaultPE
	}
	return Benchmark{Sector: sector, Metric: metric, Value: fallback, Source: SourceStatic}
}

func (e *Engine) classify(symbol string, info marketdata.Fundamentals, bench Benchmark) HoldingValuation {
	v := HoldingValuation{
		Symbol:          symbol,
		Metric:          bench.Metric,
		BenchmarkValue:  round2(bench.Value),
		BenchmarkSource: bench.Source,
		PEGRatio:        info.PEGRatio,
	}

	primary := info.TrailingPE
	if bench.Metric == "P/B" {
		primary = info.PriceToBook
	}
	v.MetricValue = primary

	if primary == nil {
		v.Status = StatusInsufficient
		v.StressScore = 0
		v.Reason = fmt.Sprintf("Missing %s data", bench.Metric)
		return v
	}

	ratio := 1.0
	if bench.Value > 0 {
		ratio = *primary / bench.Value
	}

	cv := e.cfg.Valuation
	switch {
	case ratio < cv.DiscountRatio:
		v.Status = StatusUndervalued
		v.StressScore = 30
		v.Reason = fmt.Sprintf("Trading at discount to %s (%s %.1f vs %.1f)", bench.Source, bench.Metric, *primary, bench.Value)

	case ratio <= cv.PremiumRatio:
		v.Status = StatusFairValue
		v.StressScore = 50
		v.Reason = fmt.Sprintf("Aligned with %s", bench.Source)

	default:
		// Growth defense: a rich multiple is forgiven when PEG is low.
		if info.PEGRatio != nil && *info.PEGRatio > 0 && *info.PEGRatio < cv.PEGMax {
			v.Status = StatusJustifiedPremium
			v.StressScore = 60
			v.Reason = fmt.Sprintf("Premium valuation supported by growth (PEG %.2f)", *info.PEGRatio)
			return v
		}
		switch {
		case ratio > cv.StretchedRatio:
			v.Status = StatusHighlyStretched
			v.StressScore = 90
			v.Reason = fmt.Sprintf("Significantly detached from %s without PEG support", bench.Source)
		case ratio > cv.OvervaluedRatio:
			v.Status = StatusOvervalued
			v.StressScore = 75
			v.Reason = fmt.Sprintf("Expensive relative to %s", bench.Source)
		default:
			v.Status = StatusPremium
			v.StressScore = 65
			v.Reason = "Trading at premium to peers"
		}
	}
	return v
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
