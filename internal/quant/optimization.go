// Package quant provides the numeric display panels: an efficient-frontier
// weight search and a Monte Carlo portfolio simulation. Both are pure
// post-processing over the market snapshot and never feed back into the
// decision pipeline.
package quant

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

const (
	tradingDays      = 252
	riskFreeRate     = 0.07 // annual, INR deposit proxy
	searchIterations = 20000
	minCleanWeight   = 0.01
)

// OptimizationResult is the max-Sharpe panel.
type OptimizationResult struct {
	Status         string             `json:"status"`
	Message        string             `json:"message,omitempty"`
	OptimalWeights map[string]float64 `json:"optimal_weights,omitempty"`
	ExpectedReturn float64            `json:"expected_return,omitempty"`
	Volatility     float64            `json:"volatility,omitempty"`
	SharpeRatio    float64            `json:"sharpe_ratio,omitempty"`
	Allocation     map[string]int     `json:"suggested_allocation,omitempty"`
}

type Optimizer struct {
	cfg *store.Config
	rng *rand.Rand
}

func NewOptimizer(cfg *store.Config, seed int64) *Optimizer {
	return &Optimizer{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Run searches random simplex weights for the maximum Sharpe portfolio
// over the holdings' aligned return histories.
func (o *Optimizer) Run(rows []types.Holding, snap *marketdata.Snapshot, portfolioValue float64) *OptimizationResult {
	symbols, returns, lastPrices := alignedReturns(rows, snap)
	if len(symbols) < 2 {
		return &OptimizationResult{Status: "Skipped", Message: "Need at least 2 stocks with history"}
	}

	n := len(symbols)
	obs := len(returns)

	// Annualized mean return vector and sample covariance.
	data := mat.NewDense(obs, n, nil)
	for t := 0; t < obs; t++ {
		for j := 0; j < n; j++ {
			data.Set(t, j, returns[t][j])
		}
	}
	mu := make([]float64, n)
	for j := 0; j < n; j++ {
		mu[j] = stat.Mean(mat.Col(nil, j, data), nil) * tradingDays
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	cov.ScaleSym(tradingDays, &cov)

	best := OptimizationResult{Status: "Success", SharpeRatio: math.Inf(-1)}
	weights := make([]float64, n)
	bestWeights := make([]float64, n)

	for it := 0; it < searchIterations; it++ {
		sampleSimplex(o.rng, weights)

		ret := 0.0
		for j := 0; j < n; j++ {
			ret += weights[j] * mu[j]
		}
		variance := quadForm(weights, &cov)
		if variance <= 0 {
			continue
		}
		vol := math.Sqrt(variance)
		sharpe := (ret - riskFreeRate) / vol
		if sharpe > best.SharpeRatio {
			best.ExpectedReturn = ret
			best.Volatility = vol
			best.SharpeRatio = sharpe
			copy(bestWeights, weights)
		}
	}

	best.OptimalWeights = cleanWeights(symbols, bestWeights)
	best.Allocation = discreteAllocation(best.OptimalWeights, lastPrices, portfolioValue)
	best.ExpectedReturn = round4(best.ExpectedReturn)
	best.Volatility = round4(best.Volatility)
	best.SharpeRatio = round4(best.SharpeRatio)
	return &best
}

// alignedReturns builds a dense (time x asset) daily-return matrix from the
// overlapping tail of every equity holding's close history.
func alignedReturns(rows []types.Holding, snap *marketdata.Snapshot) ([]string, [][]float64, map[string]float64) {
	var symbols []string
	var series [][]float64
	lastPrices := map[string]float64{}

	minLen := math.MaxInt32
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			continue
		}
		closes := snap.Closes(h.Symbol)
		if len(closes) < 2 {
			continue
		}
		symbols = append(symbols, h.Symbol)
		series = append(series, closes)
		lastPrices[h.Symbol] = closes[len(closes)-1]
		if len(closes) < minLen {
			minLen = len(closes)
		}
	}
	if len(symbols) < 2 {
		return symbols, nil, lastPrices
	}

	obs := minLen - 1
	returns := make([][]float64, obs)
	for t := 0; t < obs; t++ {
		returns[t] = make([]float64, len(symbols))
	}
	for j, closes := range series {
		tail := closes[len(closes)-minLen:]
		for t := 1; t < minLen; t++ {
			if tail[t-1] > 0 {
				returns[t-1][j] = tail[t]/tail[t-1] - 1
			}
		}
	}
	return symbols, returns, lastPrices
}

func sampleSimplex(rng *rand.Rand, w []float64) {
	sum := 0.0
	for i := range w {
		w[i] = -math.Log(rng.Float64())
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
}

func quadForm(w []float64, cov *mat.SymDense) float64 {
	n := len(w)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += w[i] * cov.At(i, j) * w[j]
		}
	}
	return total
}

// cleanWeights zeroes dust positions and renormalizes.
func cleanWeights(symbols []string, w []float64) map[string]float64 {
	sum := 0.0
	for _, v := range w {
		if v >= minCleanWeight {
			sum += v
		}
	}
	out := make(map[string]float64, len(symbols))
	for i, sym := range symbols {
		if w[i] >= minCleanWeight && sum > 0 {
			out[sym] = math.Round(w[i]/sum*10000) / 10000
		} else {
			out[sym] = 0
		}
	}
	return out
}

// discreteAllocation greedily converts target weights into whole-share
// counts, largest target value first.
func discreteAllocation(weights map[string]float64, prices map[string]float64, totalValue float64) map[string]int {
	type target struct {
		symbol string
		value  float64
	}
	var targets []target
	for sym, w := range weights {
		if w > 0 && prices[sym] > 0 {
			targets = append(targets, target{sym, w * totalValue})
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].value > targets[j].value })

	remaining := totalValue
	out := map[string]int{}
	for _, t := range targets {
		price := prices[t.symbol]
		shares := int(math.Min(t.value, remaining) / price)
		if shares > 0 {
			out[t.symbol] = shares
			remaining -= float64(shares) * price
		}
	}
	return out
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
