package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataSource  string `yaml:"data_source"`  // LIVE or FIXTURE
	FixturePath string `yaml:"fixture_path"` // market-data JSON when data_source is FIXTURE

	Benchmark struct {
		Symbol string `yaml:"symbol"` // index used for beta computation
	} `yaml:"benchmark"`

	Risk struct {
		SingleStockPct      float64 `yaml:"single_stock_pct"`
		Top3Pct             float64 `yaml:"top3_pct"`
		Top5Pct             float64 `yaml:"top5_pct"`
		SectorOverweightPct float64 `yaml:"sector_overweight_pct"`
		MinObservations     int     `yaml:"min_observations"`
		DefaultBeta         float64 `yaml:"default_beta"`
		DefaultVolatility   float64 `yaml:"default_volatility"`
		HighVolatility      float64 `yaml:"high_volatility"`
		AggressiveBeta      float64 `yaml:"aggressive_beta"`
		AggressiveWeightPct float64 `yaml:"aggressive_weight_pct"`
		LiquidityWeightPct  float64 `yaml:"liquidity_weight_pct"`
		RestrictedWeightPct float64 `yaml:"restricted_weight_pct"`
		LargeCapMin         float64 `yaml:"large_cap_min"`
		MidCapMin           float64 `yaml:"mid_cap_min"`
		GoldBeta            float64 `yaml:"gold_beta"`
	} `yaml:"risk"`

	Valuation struct {
		DiscountRatio   float64 `yaml:"discount_ratio"`
		PremiumRatio    float64 `yaml:"premium_ratio"`
		OvervaluedRatio float64 `yaml:"overvalued_ratio"`
		StretchedRatio  float64 `yaml:"stretched_ratio"`
		PEGMax          float64 `yaml:"peg_max"`
		FallbackPB      float64 `yaml:"fallback_pb"`
		DefaultPE       float64 `yaml:"default_pe"`
	} `yaml:"valuation"`

	Thesis struct {
		DropPct            float64 `yaml:"drop_pct"`
		CoverageCritical   float64 `yaml:"coverage_critical"`
		CoverageWarn       float64 `yaml:"coverage_warn"`
		DebtEquityMax      float64 `yaml:"debt_equity_max"`
		MarginCompression  float64 `yaml:"margin_compression"`
		BrokenScore        float64 `yaml:"broken_score"`
		WeakeningScore     float64 `yaml:"weakening_score"`
		ReceivablesFactor  float64 `yaml:"receivables_factor"`
		DilutionPct        float64 `yaml:"dilution_pct"`
	} `yaml:"thesis"`

	Drag struct {
		ReplaceCutoff    float64 `yaml:"replace_cutoff"`
		MonitorCutoff    float64 `yaml:"monitor_cutoff"`
		CriticalCutoff   float64 `yaml:"critical_cutoff"`
		WeightThesis     float64 `yaml:"weight_thesis"`
		WeightValuation  float64 `yaml:"weight_valuation"`
		WeightRisk       float64 `yaml:"weight_risk"`
		WeightMomentum   float64 `yaml:"weight_momentum"`
		SwitchHurdle     float64 `yaml:"switch_hurdle"`
		WeakMomentum     float64 `yaml:"weak_momentum"`
		StrongMomentum   float64 `yaml:"strong_momentum"`
		CandidateMinMomentum float64 `yaml:"candidate_min_momentum"`
		MaxCandidates    int     `yaml:"max_candidates"`
	} `yaml:"drag"`

	Events struct {
		RecencyDays    int     `yaml:"recency_days"`
		DedupThreshold float64 `yaml:"dedup_threshold"`
		MaxPerHolding  int     `yaml:"max_per_holding"`
	} `yaml:"events"`

	Decision struct {
		MaxActions     int     `yaml:"max_actions"`
		StressWatch    float64 `yaml:"stress_watch"`
		StressExtreme  float64 `yaml:"stress_extreme"`
		MomentumRide   float64 `yaml:"momentum_ride"`
		MomentumKnife  float64 `yaml:"momentum_knife"`
		MomentumVolTrim float64 `yaml:"momentum_vol_trim"`
	} `yaml:"decision"`

	Quant struct {
		Enabled     bool `yaml:"enabled"`
		Simulations int  `yaml:"simulations"`
		HorizonDays int  `yaml:"horizon_days"`
	} `yaml:"quant"`

	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI, CLAUDE or empty for noop
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`

	Sectors struct {
		Map        map[string]string   `yaml:"map"`         // symbol -> sector
		Captains   map[string][]string `yaml:"captains"`    // sector -> leader symbols
		FallbackPE map[string]float64  `yaml:"fallback_pe"` // sector -> static multiple
	} `yaml:"sectors"`
}

// Default returns a fully-populated configuration. LoadConfig overlays the
// YAML file on top of it, so a partial file only overrides what it names.
func Default() *Config {
	c := &Config{}
	c.DataSource = "FIXTURE"
	c.Benchmark.Symbol = "NIFTY50"

	c.Risk.SingleStockPct = 15
	c.Risk.Top3Pct = 45
	c.Risk.Top5Pct = 60
	c.Risk.SectorOverweightPct = 35
	c.Risk.MinObservations = 60
	c.Risk.DefaultBeta = 1.0
	c.Risk.DefaultVolatility = 0.20
	c.Risk.HighVolatility = 0.40
	c.Risk.AggressiveBeta = 1.5
	c.Risk.AggressiveWeightPct = 5
	c.Risk.LiquidityWeightPct = 7
	c.Risk.RestrictedWeightPct = 4
	c.Risk.LargeCapMin = 500e9 // INR
	c.Risk.MidCapMin = 100e9
	c.Risk.GoldBeta = 0.1

	c.Valuation.DiscountRatio = 0.75
	c.Valuation.PremiumRatio = 1.25
	c.Valuation.OvervaluedRatio = 1.5
	c.Valuation.StretchedRatio = 2.5
	c.Valuation.PEGMax = 1.5
	c.Valuation.FallbackPB = 3.0
	c.Valuation.DefaultPE = 20.0

	c.Thesis.DropPct = 0.10
	c.Thesis.CoverageCritical = 1.5
	c.Thesis.CoverageWarn = 3.0
	c.Thesis.DebtEquityMax = 1.0
	c.Thesis.MarginCompression = 0.10
	c.Thesis.BrokenScore = 2.5
	c.Thesis.WeakeningScore = 1.0
	c.Thesis.ReceivablesFactor = 1.5
	c.Thesis.DilutionPct = 0.05

	c.Drag.ReplaceCutoff = 80
	c.Drag.MonitorCutoff = 50
	c.Drag.CriticalCutoff = 85
	c.Drag.WeightThesis = 0.45
	c.Drag.WeightValuation = 0.20
	c.Drag.WeightRisk = 0.15
	c.Drag.WeightMomentum = 0.20
	c.Drag.SwitchHurdle = 1.10
	c.Drag.WeakMomentum = 30
	c.Drag.StrongMomentum = 60
	c.Drag.CandidateMinMomentum = 40
	c.Drag.MaxCandidates = 2

	c.Events.RecencyDays = 30
	c.Events.DedupThreshold = 0.6
	c.Events.MaxPerHolding = 3

	c.Decision.MaxActions = 3
	c.Decision.StressWatch = 75
	c.Decision.StressExtreme = 90
	c.Decision.MomentumRide = 75
	c.Decision.MomentumKnife = 40
	c.Decision.MomentumVolTrim = 60

	c.Quant.Enabled = true
	c.Quant.Simulations = 1000
	c.Quant.HorizonDays = 252

	c.LLM.MaxTokens = 300
	c.LLM.Temperature = 0.3

	c.Sectors.Map = defaultSectorMap()
	c.Sectors.Captains = defaultSectorCaptains()
	c.Sectors.FallbackPE = defaultFallbackPE()
	return c
}

func (c *Config) Validate() error {
	if c.DataSource != "LIVE" && c.DataSource != "FIXTURE" {
		return fmt.Errorf("invalid data_source '%s': must be 'LIVE' or 'FIXTURE'", c.DataSource)
	}
	if c.Risk.SingleStockPct <= 0 || c.Risk.SingleStockPct > 100 {
		return fmt.Errorf("risk.single_stock_pct must be between 0-100, got %.2f", c.Risk.SingleStockPct)
	}
	if c.Risk.Top3Pct < c.Risk.SingleStockPct {
		return fmt.Errorf("risk.top3_pct (%.1f) cannot be below risk.single_stock_pct (%.1f)", c.Risk.Top3Pct, c.Risk.SingleStockPct)
	}
	if c.Risk.MinObservations <= 1 {
		return fmt.Errorf("risk.min_observations must be > 1, got %d", c.Risk.MinObservations)
	}
	if !(c.Valuation.DiscountRatio < c.Valuation.PremiumRatio &&
		c.Valuation.PremiumRatio < c.Valuation.OvervaluedRatio &&
		c.Valuation.OvervaluedRatio < c.Valuation.StretchedRatio) {
		return fmt.Errorf("valuation ratio tiers must be strictly increasing")
	}
	if c.Thesis.BrokenScore <= c.Thesis.WeakeningScore {
		return fmt.Errorf("thesis.broken_score must exceed thesis.weakening_score")
	}
	wsum := c.Drag.WeightThesis + c.Drag.WeightValuation + c.Drag.WeightRisk + c.Drag.WeightMomentum
	if wsum < 0.99 || wsum > 1.01 {
		return fmt.Errorf("drag weights must sum to 1.0, got %.3f", wsum)
	}
	if c.Drag.MonitorCutoff >= c.Drag.ReplaceCutoff {
		return fmt.Errorf("drag.monitor_cutoff must be below drag.replace_cutoff")
	}
	if c.Drag.SwitchHurdle < 1.0 {
		return fmt.Errorf("drag.switch_hurdle must be >= 1.0, got %.2f", c.Drag.SwitchHurdle)
	}
	if c.Events.DedupThreshold < 0 || c.Events.DedupThreshold > 1 {
		return fmt.Errorf("events.dedup_threshold must be within [0,1], got %.2f", c.Events.DedupThreshold)
	}
	if c.Events.RecencyDays <= 0 {
		return fmt.Errorf("events.recency_days must be positive, got %d", c.Events.RecencyDays)
	}
	if c.Decision.MaxActions <= 0 {
		return fmt.Errorf("decision.max_actions must be positive, got %d", c.Decision.MaxActions)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	// Overlaying the file can null out the lookup tables entirely.
	if len(c.Sectors.Map) == 0 {
		c.Sectors.Map = defaultSectorMap()
	}
	if len(c.Sectors.Captains) == 0 {
		c.Sectors.Captains = defaultSectorCaptains()
	}
	if len(c.Sectors.FallbackPE) == 0 {
		c.Sectors.FallbackPE = defaultFallbackPE()
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
