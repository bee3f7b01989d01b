package ta

import "math"

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// DailyReturns converts a close series into simple day-over-day returns.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, closes[i]/closes[i-1]-1)
	}
	return rets
}

// Beta regresses asset daily returns against benchmark daily returns.
// Both slices must be aligned and the same length.
func Beta(asset, bench []float64) float64 {
	n := len(asset)
	if n != len(bench) || n < 2 {
		return math.NaN()
	}
	ma, mb := mean(asset), mean(bench)
	cov, varB := 0.0, 0.0
	for i := 0; i < n; i++ {
		cov += (asset[i] - ma) * (bench[i] - mb)
		varB += (bench[i] - mb) * (bench[i] - mb)
	}
	if varB == 0 {
		return math.NaN()
	}
	return cov / varB
}

// AnnualizedVolatility scales daily return stddev by sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	n := len(dailyReturns)
	if n < 2 {
		return math.NaN()
	}
	m := mean(dailyReturns)
	s := 0.0
	for _, r := range dailyReturns {
		d := r - m
		s += d * d
	}
	return math.Sqrt(s/float64(n-1)) * math.Sqrt(252)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

const (
	momentumLongMA  = 200
	momentumShortMA = 50
)

// MomentumScore grades technical trend health 0-100 from moving-average
// relationships. Neutral 50 with under 200 days of history; +/-15 for
// price vs 200-DMA, +/-10 for price vs 50-DMA, +5 for a golden cross.
func MomentumScore(closes []float64) float64 {
	if len(closes) < momentumLongMA {
		return 50
	}
	price := closes[len(closes)-1]
	ma200 := SMA(closes, momentumLongMA)
	ma50 := SMA(closes, momentumShortMA)

	score := 50.0
	if price > ma200 {
		score += 15
	} else {
		score -= 15
	}
	if price > ma50 {
		score += 10
	} else {
		score -= 10
	}
	if ma50 > ma200 {
		score += 5
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
