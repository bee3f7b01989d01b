package risk

import (
	"math"
	"strings"
	"testing"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

func fptr(v float64) *float64 { return &v }

func candleSeries(closes []float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{Ts: int64(i) * 86400, Close: c}
	}
	return out
}

func TestDefaultsBelowMinObservations(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()
	// Only 10 overlapping days, well under the 60 minimum.
	snap.History["NIFTY50"] = candleSeries([]float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109})
	snap.History["NEWIPO"] = candleSeries([]float64{50, 51, 50, 52, 53, 52, 54, 55, 54, 56})

	rows := []types.Holding{
		{Symbol: "NEWIPO", Type: types.InstrumentEquity, CurrentValue: 100000, WeightPct: 100},
	}
	report := New(cfg).Run(rows, snap)

	hr := report.Get("NEWIPO")
	if !hr.Defaulted {
		t.Error("Expected default fallback with short history")
	}
	if hr.Beta != 1.0 {
		t.Errorf("Expected default beta 1.0, got %f", hr.Beta)
	}
	if hr.Volatility != 0.20 {
		t.Errorf("Expected default volatility 0.20, got %f", hr.Volatility)
	}

	// VaR = value x (vol / sqrt(252)) x 1.65
	wantVaR := 100000 * (0.20 / math.Sqrt(252)) * 1.65
	if math.Abs(hr.VaR95-wantVaR) > 1 {
		t.Errorf("Expected VaR ~%f, got %f", wantVaR, hr.VaR95)
	}
}

func TestSmallCapLiquidityTag(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()
	snap.Fundamentals["MICROCO"] = marketdata.Fundamentals{MarketCap: fptr(50e9)} // below mid-cap floor

	rows := []types.Holding{
		{Symbol: "MICROCO", Type: types.InstrumentEquity, CurrentValue: 8000, WeightPct: 8},
		{Symbol: "HDFCBANK", Type: types.InstrumentEquity, CurrentValue: 92000, WeightPct: 92},
	}
	report := New(cfg).Run(rows, snap)

	hr := report.Get("MICROCO")
	if hr.SizeCategory != SizeSmall {
		t.Fatalf("Expected Small Cap, got %s", hr.SizeCategory)
	}
	if hr.RiskTag != TagCriticalLiquidity {
		t.Errorf("Expected %q tag at 8%% weight, got %q", TagCriticalLiquidity, hr.RiskTag)
	}
}

func TestSGBGetsGoldBeta(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()

	rows := []types.Holding{
		{Symbol: "SGBAUG29", Type: types.InstrumentSGB, CurrentValue: 50000, WeightPct: 50},
		{Symbol: "TCS", Type: types.InstrumentEquity, CurrentValue: 50000, WeightPct: 50},
	}
	report := New(cfg).Run(rows, snap)

	hr := report.Get("SGBAUG29")
	if hr.Beta != cfg.Risk.GoldBeta {
		t.Errorf("Expected gold beta %f, got %f", cfg.Risk.GoldBeta, hr.Beta)
	}
	if hr.VaR95 != 0 {
		t.Errorf("Expected zero VaR for non-equity, got %f", hr.VaR95)
	}
}

func TestConcentrationFlags(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()

	rows := []types.Holding{
		{Symbol: "BIGPOS", Type: types.InstrumentEquity, CurrentValue: 40000, WeightPct: 40},
		{Symbol: "MID1", Type: types.InstrumentEquity, CurrentValue: 30000, WeightPct: 30},
		{Symbol: "MID2", Type: types.InstrumentEquity, CurrentValue: 20000, WeightPct: 20},
		{Symbol: "SMALL", Type: types.InstrumentEquity, CurrentValue: 10000, WeightPct: 10},
	}
	report := New(cfg).Run(rows, snap)

	c := report.Concentration
	if c.Top1Pct != 40 {
		t.Errorf("Expected top1 40, got %f", c.Top1Pct)
	}
	if c.Top3Pct != 90 {
		t.Errorf("Expected top3 90, got %f", c.Top3Pct)
	}
	// 40 > 15, 90 > 45, 100 > 60: all three flags fire.
	if len(c.Flags) != 3 {
		t.Errorf("Expected 3 concentration flags, got %d: %v", len(c.Flags), c.Flags)
	}
}

func TestSectorOverweightFlag(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()

	rows := []types.Holding{
		{Symbol: "HDFCBANK", Type: types.InstrumentEquity, CurrentValue: 25000, WeightPct: 25},
		{Symbol: "ICICIBANK", Type: types.InstrumentEquity, CurrentValue: 20000, WeightPct: 20},
		{Symbol: "TCS", Type: types.InstrumentEquity, CurrentValue: 55000, WeightPct: 55},
	}
	report := New(cfg).Run(rows, snap)

	if report.SectorExposure["Financials"] != 45 {
		t.Errorf("Expected Financials exposure 45, got %f", report.SectorExposure["Financials"])
	}

	foundFin, foundIT := false, false
	for _, f := range report.SectorFlags {
		if strings.HasPrefix(f, "Financials") {
			foundFin = true
		}
		if strings.HasPrefix(f, "Information Technology") {
			foundIT = true
		}
	}
	if !foundFin {
		t.Errorf("Expected Financials overweight flag, got %v", report.SectorFlags)
	}
	if !foundIT {
		t.Errorf("Expected Information Technology overweight flag, got %v", report.SectorFlags)
	}
}

func TestBetaFromOverlappingHistory(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()

	// 80 days of history where the asset's daily return is exactly twice
	// the benchmark's.
	benchRets := []float64{0.01, -0.005, 0.002, -0.012, 0.007}
	bench := make([]float64, 80)
	asset := make([]float64, 80)
	bench[0], asset[0] = 100, 100
	for i := 1; i < 80; i++ {
		r := benchRets[i%len(benchRets)]
		bench[i] = bench[i-1] * (1 + r)
		asset[i] = asset[i-1] * (1 + 2*r)
	}
	snap.History["NIFTY50"] = candleSeries(bench)
	snap.History["LEVERED"] = candleSeries(asset)

	rows := []types.Holding{
		{Symbol: "LEVERED", Type: types.InstrumentEquity, CurrentValue: 100000, WeightPct: 100},
	}
	report := New(cfg).Run(rows, snap)

	hr := report.Get("LEVERED")
	if hr.Defaulted {
		t.Error("Expected computed beta with 80 overlapping observations")
	}
	if math.Abs(hr.Beta-2.0) > 0.01 {
		t.Errorf("Expected beta ~2.0, got %f", hr.Beta)
	}
	if hr.Volatility <= 0 {
		t.Errorf("Expected positive volatility, got %f", hr.Volatility)
	}
}

func TestPortfolioProfileLabel(t *testing.T) {
	if profileLabel(1.5) != "Aggressive" {
		t.Error("Expected Aggressive above 1.2")
	}
	if profileLabel(0.5) != "Conservative" {
		t.Error("Expected Conservative below 0.8")
	}
	if profileLabel(1.0) != "Balanced" {
		t.Error("Expected Balanced at 1.0")
	}
}
