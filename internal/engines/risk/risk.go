// Package risk computes portfolio and holding level risk diagnostics:
// beta, annualized volatility, value-at-risk, concentration and sector
// exposure flags, and the per-holding risk tags consumed downstream.
package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/ta"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Size categories by market cap.
const (
	SizeLarge   = "Large Cap"
	SizeMid     = "Mid Cap"
	SizeSmall   = "Small Cap"
	SizeUnknown = "Unknown"
)

// Risk tags. At most one tag per holding, most severe wins.
const (
	TagCriticalLiquidity  = "Critical (Liquidity)"
	TagCriticalVolatility = "Critical (Volatility)"
	TagHighVolatility     = "High Volatility"
	TagAggressiveExposure = "Aggressive Exposure"
)

// HoldingRisk is the per-holding risk record.
type HoldingRisk struct {
	Symbol            string  `json:"symbol"`
	Beta              float64 `json:"beta"`
	Volatility        float64 `json:"volatility"` // annualized
	VaR95             float64 `json:"var_95_amt"` // daily, currency
	SizeCategory      string  `json:"size_category"`
	RiskTag           string  `json:"risk_tag,omitempty"`
	ContributionScore float64 `json:"risk_contribution_score"` // beta x weight
	Defaulted         bool    `json:"defaulted"`               // true when history fell back to defaults
}

// Concentration summarizes top-weight exposure.
type Concentration struct {
	Top1Pct float64  `json:"top1_pct"`
	Top3Pct float64  `json:"top3_pct"`
	Top5Pct float64  `json:"top5_pct"`
	Flags   []string `json:"flags"`
}

// Report is the engine's full output.
type Report struct {
	PortfolioBeta  float64                `json:"portfolio_beta"`
	DailyVaR95     float64                `json:"daily_var_95"`
	RiskProfile    string                 `json:"risk_profile"`
	Concentration  Concentration          `json:"concentration"`
	SectorExposure map[string]float64     `json:"sector_exposure"`
	SectorFlags    []string               `json:"sector_flags"`
	Holdings       map[string]HoldingRisk `json:"holding_risk"`
}

// Get returns the risk record for a symbol, zero value when absent.
func (r *Report) Get(symbol string) HoldingRisk {
	if r == nil {
		return HoldingRisk{}
	}
	return r.Holdings[symbol]
}

type Engine struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run evaluates the full holdings table against one market snapshot.
func (e *Engine) Run(rows []types.Holding, snap *marketdata.Snapshot) *Report {
	report := &Report{
		SectorExposure: map[string]float64{},
		Holdings:       map[string]HoldingRisk{},
	}

	benchCloses := alignedCloseMap(snap.History[e.cfg.Benchmark.Symbol])

	portfolioBeta := 0.0
	totalVaR := 0.0

	for _, h := range rows {
		hr := e.evaluateHolding(h, snap, benchCloses)
		report.Holdings[h.Symbol] = hr
		portfolioBeta += hr.Beta * h.WeightPct / 100
		totalVaR += hr.VaR95

		info, _ := snap.Info(h.Symbol)
		sector := e.cfg.SectorOf(h.Symbol, info.Industry)
		report.SectorExposure[sector] += h.WeightPct
	}

	report.PortfolioBeta = round2(portfolioBeta)
	report.DailyVaR95 = math.Round(totalVaR)
	report.RiskProfile = profileLabel(portfolioBeta)
	report.Concentration = e.concentration(rows)
	report.SectorFlags = e.sectorFlags(report.SectorExposure)
	return report
}

func (e *Engine) evaluateHolding(h types.Holding, snap *marketdata.Snapshot, bench map[int64]float64) HoldingRisk {
	hr := HoldingRisk{Symbol: h.Symbol, SizeCategory: SizeUnknown}

	if !h.Type.IsEquityLike() {
		// Gold-linked instruments keep a small positive beta to reflect
		// their low but non-zero correlation with equities.
		if h.Type == types.InstrumentSGB {
			hr.Beta = e.cfg.Risk.GoldBeta
		}
		hr.ContributionScore = hr.Beta * h.WeightPct
		return hr
	}

	beta, vol, defaulted := e.betaAndVol(snap.History[h.Symbol], bench)
	hr.Beta = round2(beta)
	hr.Volatility = round4(vol)
	hr.Defaulted = defaulted
	hr.VaR95 = h.CurrentValue * (vol / math.Sqrt(252)) * 1.65
	hr.ContributionScore = round2(beta * h.WeightPct)

	if info, ok := snap.Info(h.Symbol); ok && info.MarketCap != nil {
		hr.SizeCategory = e.sizeCategory(*info.MarketCap)
	}

	hr.RiskTag = e.riskTag(h, hr)
	return hr
}

// betaAndVol computes beta and annualized volatility from the overlap of
// the holding's and the benchmark's daily closes. Below the minimum
// observation count both fall back to configured defaults.
func (e *Engine) betaAndVol(hist []types.Candle, bench map[int64]float64) (beta, vol float64, defaulted bool) {
	var asset, index []float64
	for _, c := range hist {
		if b, ok := bench[dayKey(c.Ts)]; ok && c.Close > 0 && b > 0 {
			asset = append(asset, c.Close)
			index = append(index, b)
		}
	}

	if len(asset) < e.cfg.Risk.MinObservations {
		return e.cfg.Risk.DefaultBeta, e.cfg.Risk.DefaultVolatility, true
	}

	assetRet := ta.DailyReturns(asset)
	indexRet := ta.DailyReturns(index)

	beta = ta.Beta(assetRet, indexRet)
	vol = ta.AnnualizedVolatility(assetRet)
	if math.IsNaN(beta) {
		beta = e.cfg.Risk.DefaultBeta
		defaulted = true
	}
	if math.IsNaN(vol) {
		vol = e.cfg.Risk.DefaultVolatility
		defaulted = true
	}
	return beta, vol, defaulted
}

func (e *Engine) sizeCategory(marketCap float64) string {
	switch {
	case marketCap >= e.cfg.Risk.LargeCapMin:
		return SizeLarge
	case marketCap >= e.cfg.Risk.MidCapMin:
		return SizeMid
	default:
		return SizeSmall
	}
}

func (e *Engine) riskTag(h types.Holding, hr HoldingRisk) string {
	liquidityLimit := e.cfg.Risk.LiquidityWeightPct
	if h.Type == types.InstrumentRestricted {
		liquidityLimit = e.cfg.Risk.RestrictedWeightPct
	}

	switch {
	case hr.SizeCategory == SizeSmall && h.WeightPct > liquidityLimit:
		return TagCriticalLiquidity
	case h.Type == types.InstrumentRestricted && h.WeightPct > liquidityLimit:
		return TagCriticalLiquidity
	case hr.Volatility > e.cfg.Risk.HighVolatility && h.WeightPct > e.cfg.Risk.AggressiveWeightPct:
		return TagCriticalVolatility
	case hr.Volatility > e.cfg.Risk.HighVolatility:
		return TagHighVolatility
	case hr.Beta > e.cfg.Risk.AggressiveBeta && h.WeightPct > e.cfg.Risk.AggressiveWeightPct:
		return TagAggressiveExposure
	}
	return ""
}

func (e *Engine) concentration(rows []types.Holding) Concentration {
	weights := make([]float64, len(rows))
	for i, h := range rows {
		weights[i] = h.WeightPct
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	c := Concentration{}
	if len(weights) > 0 {
		c.Top1Pct = round2(weights[0])
	}
	c.Top3Pct = round2(sumTop(weights, 3))
	c.Top5Pct = round2(sumTop(weights, 5))

	if c.Top1Pct > e.cfg.Risk.SingleStockPct {
		c.Flags = append(c.Flags, fmt.Sprintf("Single stock > %.0f%% of portfolio", e.cfg.Risk.SingleStockPct))
	}
	if c.Top3Pct > e.cfg.Risk.Top3Pct {
		c.Flags = append(c.Flags, fmt.Sprintf("Top 3 holdings > %.0f%% of portfolio", e.cfg.Risk.Top3Pct))
	}
	if c.Top5Pct > e.cfg.Risk.Top5Pct {
		c.Flags = append(c.Flags, fmt.Sprintf("Top 5 holdings > %.0f%% of portfolio", e.cfg.Risk.Top5Pct))
	}
	return c
}

func (e *Engine) sectorFlags(exposure map[string]float64) []string {
	sectors := make([]string, 0, len(exposure))
	for s := range exposure {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	var flags []string
	for _, s := range sectors {
		if exposure[s] > e.cfg.Risk.SectorOverweightPct {
			flags = append(flags, fmt.Sprintf("%s exposure %.1f%% exceeds %.0f%% limit", s, exposure[s], e.cfg.Risk.SectorOverweightPct))
		}
	}
	return flags
}

func profileLabel(beta float64) string {
	switch {
	case beta > 1.2:
		return "Aggressive"
	case beta < 0.8:
		return "Conservative"
	default:
		return "Balanced"
	}
}

// dayKey truncates a unix timestamp to its UTC day so close series from
// different sources align on calendar date.
func dayKey(ts int64) int64 {
	return ts - ts%86400
}

func alignedCloseMap(candles []types.Candle) map[int64]float64 {
	m := make(map[int64]float64, len(candles))
	for _, c := range candles {
		m[dayKey(c.Ts)] = c.Close
	}
	return m
}

func sumTop(sorted []float64, n int) float64 {
	if n > len(sorted) {
		n = len(sorted)
	}
	s := 0.0
	for i := 0; i < n; i++ {
		s += sorted[i]
	}
	return s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
