package quant

import (
	"math"
	"math/rand"
	randv2 "math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// SimulationResult summarizes the terminal-value distribution of the
// geometric Brownian motion paths.
type SimulationResult struct {
	WorstCase1Y     float64 `json:"worst_case_1y"` // 5th percentile
	BestCase1Y      float64 `json:"best_case_1y"`  // 95th percentile
	Median1Y        float64 `json:"median_1y"`
	LossProbability float64 `json:"loss_probability"`
	Simulations     int     `json:"simulations"`
}

type Simulator struct {
	cfg *store.Config
	rng *rand.Rand
}

func NewSimulator(cfg *store.Config, seed int64) *Simulator {
	return &Simulator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Run projects the portfolio's aggregate value one horizon forward using
// GBM calibrated on the weighted historical daily log returns.
func (s *Simulator) Run(rows []types.Holding, snap *marketdata.Snapshot, totalValue float64) *SimulationResult {
	daily := portfolioLogReturns(rows, snap)
	if len(daily) < 2 || totalValue <= 0 {
		return nil
	}

	mean := stat.Mean(daily, nil)
	variance := stat.Variance(daily, nil)
	drift := mean - 0.5*variance
	stdev := math.Sqrt(variance)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: randv2.NewPCG(uint64(s.rng.Int63()), uint64(s.rng.Int63()))}

	sims := s.cfg.Quant.Simulations
	horizon := s.cfg.Quant.HorizonDays
	ending := make([]float64, sims)
	for i := 0; i < sims; i++ {
		value := totalValue
		for t := 1; t < horizon; t++ {
			value *= math.Exp(drift + stdev*normal.Rand())
		}
		ending[i] = value
	}

	// stat.Quantile requires sorted input.
	sorted := append([]float64(nil), ending...)
	sort.Float64s(sorted)

	losses := 0
	for _, v := range ending {
		if v < totalValue {
			losses++
		}
	}

	return &SimulationResult{
		WorstCase1Y:     math.Round(stat.Quantile(0.05, stat.Empirical, sorted, nil)),
		BestCase1Y:      math.Round(stat.Quantile(0.95, stat.Empirical, sorted, nil)),
		Median1Y:        math.Round(stat.Quantile(0.50, stat.Empirical, sorted, nil)),
		LossProbability: float64(losses) / float64(sims),
		Simulations:     sims,
	}
}

// portfolioLogReturns aggregates weighted per-holding daily log returns
// over the overlapping tail of the histories.
func portfolioLogReturns(rows []types.Holding, snap *marketdata.Snapshot) []float64 {
	var series [][]float64
	var weights []float64

	minLen := math.MaxInt32
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			continue
		}
		closes := snap.Closes(h.Symbol)
		if len(closes) < 2 {
			continue
		}
		series = append(series, closes)
		weights = append(weights, h.WeightPct/100)
		if len(closes) < minLen {
			minLen = len(closes)
		}
	}
	if len(series) == 0 {
		return nil
	}

	out := make([]float64, minLen-1)
	for j, closes := range series {
		tail := closes[len(closes)-minLen:]
		for t := 1; t < minLen; t++ {
			if tail[t-1] > 0 && tail[t] > 0 {
				out[t-1] += math.Log(tail[t]/tail[t-1]) * weights[j]
			}
		}
	}
	return out
}
