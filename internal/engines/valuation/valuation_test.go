package valuation

import (
	"testing"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

func fptr(v float64) *float64 { return &v }

func equityRow(symbol string) types.Holding {
	return types.Holding{Symbol: symbol, Type: types.InstrumentEquity, CurrentValue: 10000, WeightPct: 10}
}

// Captains at P/E 18, 20, 22 give a live median benchmark of 20.
func snapWithITCaptains() *marketdata.Snapshot {
	snap := marketdata.NewSnapshot()
	snap.Fundamentals["TCS"] = marketdata.Fundamentals{TrailingPE: fptr(18)}
	snap.Fundamentals["INFY"] = marketdata.Fundamentals{TrailingPE: fptr(20)}
	snap.Fundamentals["HCLTECH"] = marketdata.Fundamentals{TrailingPE: fptr(22)}
	return snap
}

func TestJustifiedPremiumGrowthDefense(t *testing.T) {
	cfg := store.Default()
	snap := snapWithITCaptains()
	snap.Fundamentals["PERSISTENT"] = marketdata.Fundamentals{TrailingPE: fptr(40), PEGRatio: fptr(0.9)}

	report := New(cfg).Run([]types.Holding{equityRow("PERSISTENT")}, snap)
	v := report.Get("PERSISTENT")

	if v.Status != StatusJustifiedPremium {
		t.Errorf("Expected %s, got %s", StatusJustifiedPremium, v.Status)
	}
	if v.StressScore != 60 {
		t.Errorf("Expected stress 60, got %f", v.StressScore)
	}
	if v.BenchmarkValue != 20 {
		t.Errorf("Expected captain median benchmark 20, got %f", v.BenchmarkValue)
	}
	if v.BenchmarkSource != SourceCaptains {
		t.Errorf("Expected live captain benchmark, got %s", v.BenchmarkSource)
	}
}

func TestHighlyStretchedWithoutGrowthDefense(t *testing.T) {
	cfg := store.Default()
	snap := snapWithITCaptains()
	snap.Fundamentals["PERSISTENT"] = marketdata.Fundamentals{TrailingPE: fptr(55), PEGRatio: fptr(4.0)}

	v := New(cfg).Run([]types.Holding{equityRow("PERSISTENT")}, snap).Get("PERSISTENT")
	if v.Status != StatusHighlyStretched {
		t.Errorf("Expected %s at ratio 2.75, got %s", StatusHighlyStretched, v.Status)
	}
	if v.StressScore != 90 {
		t.Errorf("Expected stress 90, got %f", v.StressScore)
	}
}

func TestValuationTiers(t *testing.T) {
	cfg := store.Default()

	cases := []struct {
		pe     float64
		status string
		stress float64
	}{
		{12, StatusUndervalued, 30},     // ratio 0.60
		{22, StatusFairValue, 50},       // ratio 1.10
		{28, StatusPremium, 65},         // ratio 1.40
		{40, StatusOvervalued, 75},      // ratio 2.00
		{55, StatusHighlyStretched, 90}, // ratio 2.75
	}
	for _, tc := range cases {
		snap := snapWithITCaptains()
		snap.Fundamentals["PERSISTENT"] = marketdata.Fundamentals{TrailingPE: fptr(tc.pe)}
		v := New(cfg).Run([]types.Holding{equityRow("PERSISTENT")}, snap).Get("PERSISTENT")
		if v.Status != tc.status {
			t.Errorf("P/E %.0f: expected %s, got %s", tc.pe, tc.status, v.Status)
		}
		if v.StressScore != tc.stress {
			t.Errorf("P/E %.0f: expected stress %.0f, got %f", tc.pe, tc.stress, v.StressScore)
		}
	}
}

func TestFinancialsUsePriceToBook(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()
	snap.Fundamentals["HDFCBANK"] = marketdata.Fundamentals{PriceToBook: fptr(2.5)}
	snap.Fundamentals["ICICIBANK"] = marketdata.Fundamentals{PriceToBook: fptr(3.0)}
	snap.Fundamentals["KOTAKBANK"] = marketdata.Fundamentals{PriceToBook: fptr(3.5)}
	snap.Fundamentals["AXISBANK"] = marketdata.Fundamentals{PriceToBook: fptr(2.8), TrailingPE: fptr(14)}

	v := New(cfg).Run([]types.Holding{equityRow("AXISBANK")}, snap).Get("AXISBANK")
	if v.Metric != "P/B" {
		t.Errorf("Expected P/B metric for Financials, got %s", v.Metric)
	}
	// 2.8 / 3.0 = 0.93: fair value.
	if v.Status != StatusFairValue {
		t.Errorf("Expected %s, got %s", StatusFairValue, v.Status)
	}
}

func TestStaticFallbackWhenCaptainsMissing(t *testing.T) {
	cfg := store.Default()
	// No data for BHARTIARTL, the only Telecom captain, so the sector
	// benchmark drops to the static fallback multiple.
	snap := marketdata.NewSnapshot()
	snap.Fundamentals["IDEA"] = marketdata.Fundamentals{TrailingPE: fptr(30)}

	v := New(cfg).Run([]types.Holding{equityRow("IDEA")}, snap).Get("IDEA")
	if v.BenchmarkSource != SourceStatic {
		t.Errorf("Expected %s, got %s", SourceStatic, v.BenchmarkSource)
	}
	if v.BenchmarkValue != 20 {
		t.Errorf("Expected static Telecom fallback 20, got %f", v.BenchmarkValue)
	}
	// Ratio 1.50 lands just inside the premium band.
	if v.Status != StatusPremium {
		t.Errorf("Expected %s, got %s", StatusPremium, v.Status)
	}
}

func TestMissingMetricInsufficientData(t *testing.T) {
	cfg := store.Default()
	snap := snapWithITCaptains()
	// No fundamentals entry at all for the holding.
	v := New(cfg).Run([]types.Holding{equityRow("WIPRO")}, snap).Get("WIPRO")
	if v.Status != StatusInsufficient {
		t.Errorf("Expected %s, got %s", StatusInsufficient, v.Status)
	}
	if v.StressScore != 0 {
		t.Errorf("Expected stress 0, got %f", v.StressScore)
	}
}

func TestNonEquityNotApplicable(t *testing.T) {
	cfg := store.Default()
	snap := marketdata.NewSnapshot()
	row := types.Holding{Symbol: "SGBAUG29", Type: types.InstrumentSGB, CurrentValue: 10000, WeightPct: 10}
	v := New(cfg).Run([]types.Holding{row}, snap).Get("SGBAUG29")
	if v.Status != StatusNotApplicable {
		t.Errorf("Expected %s, got %s", StatusNotApplicable, v.Status)
	}
}
