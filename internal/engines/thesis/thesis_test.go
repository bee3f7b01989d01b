package thesis

import (
	"strings"
	"testing"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

func equityRow(symbol string) types.Holding {
	return types.Holding{Symbol: symbol, Type: types.InstrumentEquity, CurrentValue: 10000, WeightPct: 10}
}

func runOne(t *testing.T, symbol string, stmts *marketdata.Statements) HoldingThesis {
	t.Helper()
	snap := marketdata.NewSnapshot()
	snap.Statements[symbol] = stmts
	return New(store.Default()).Run([]types.Holding{equityRow(symbol)}, snap).Get(symbol)
}

func hasDriver(th HoldingThesis, substr string) bool {
	for _, d := range th.Drivers {
		if strings.Contains(d, substr) {
			return true
		}
	}
	return false
}

func TestBrokenOnDecliningGrowthAndCoverage(t *testing.T) {
	// Revenue and profit shrinking three years running, operating income
	// barely covering interest. Weights: 1.0 + 1.0 + 2.0 = 4.0.
	th := runOne(t, "TATAMOTORS", &marketdata.Statements{
		Revenue:         []float64{800, 900, 1000},
		NetIncome:       []float64{40, 60, 80},
		OperatingIncome: []float64{60, 70, 85},
		InterestExpense: []float64{50, 48, 45},
	})
	if th.Status != StatusBroken {
		t.Errorf("Expected %s, got %s (score %.1f)", StatusBroken, th.Status, th.PenaltyScore)
	}
	if th.PenaltyScore != 4.0 {
		t.Errorf("Expected penalty 4.0, got %f", th.PenaltyScore)
	}
	if !hasDriver(th, "Interest coverage critical") {
		t.Errorf("Expected coverage driver, got %v", th.Drivers)
	}
}

func TestWeakeningOnSingleSharpRevenueDrop(t *testing.T) {
	th := runOne(t, "ZOMATO", &marketdata.Statements{
		Revenue:   []float64{850, 1000},
		NetIncome: []float64{98, 100},
	})
	if th.Status != StatusWeakening {
		t.Errorf("Expected %s, got %s", StatusWeakening, th.Status)
	}
	if th.PenaltyScore != 1.0 {
		t.Errorf("Expected penalty 1.0, got %f", th.PenaltyScore)
	}
}

func TestIntactOnHealthyGrowth(t *testing.T) {
	th := runOne(t, "TITAN", &marketdata.Statements{
		Revenue:         []float64{1200, 1100, 1000},
		NetIncome:       []float64{150, 130, 110},
		OperatingIncome: []float64{240, 220, 200},
		InterestExpense: []float64{10, 10, 10},
		TotalDebt:       []float64{100},
		Equity:          []float64{1500, 1300, 1100},
	})
	if th.Status != StatusIntact {
		t.Errorf("Expected %s, got %s (drivers %v)", StatusIntact, th.Status, th.Drivers)
	}
	if th.PenaltyScore != 0 {
		t.Errorf("Expected zero penalty, got %f", th.PenaltyScore)
	}
}

func TestFinancialBookValueDecline(t *testing.T) {
	th := runOne(t, "HDFCBANK", &marketdata.Statements{
		Revenue:   []float64{1100, 1000},
		NetIncome: []float64{110, 100},
		Equity:    []float64{900, 1000},
	})
	if !th.IsFinancial {
		t.Error("Expected bank to be treated as financial")
	}
	if th.PenaltyScore != 2.0 {
		t.Errorf("Expected penalty 2.0, got %f", th.PenaltyScore)
	}
	if !hasDriver(th, "Book value declining") {
		t.Errorf("Expected book value driver, got %v", th.Drivers)
	}
	if th.Status != StatusWeakening {
		t.Errorf("Expected %s, got %s", StatusWeakening, th.Status)
	}
}

func TestCoverageSkippedForFinancials(t *testing.T) {
	// Banks run on leverage; the D/E and coverage checks must not fire.
	th := runOne(t, "ICICIBANK", &marketdata.Statements{
		Revenue:         []float64{1100, 1000},
		NetIncome:       []float64{110, 100},
		OperatingIncome: []float64{200, 180},
		InterestExpense: []float64{500, 450},
		TotalDebt:       []float64{9000},
		Equity:          []float64{1100, 1000},
	})
	if th.PenaltyScore != 0 {
		t.Errorf("Expected zero penalty for leveraged bank, got %f (%v)", th.PenaltyScore, th.Drivers)
	}
}

func TestReceivablesOutgrowingRevenue(t *testing.T) {
	th := runOne(t, "ZOMATO", &marketdata.Statements{
		Revenue:     []float64{1100, 1000},
		NetIncome:   []float64{110, 100},
		Receivables: []float64{130, 100},
	})
	if th.PenaltyScore != 2.0 {
		t.Errorf("Expected penalty 2.0, got %f (%v)", th.PenaltyScore, th.Drivers)
	}
	if !hasDriver(th, "Receivables") {
		t.Errorf("Expected receivables driver, got %v", th.Drivers)
	}
}

func TestROEErosionOverThreeYears(t *testing.T) {
	// Flat revenue, shrinking profit on a constant equity base: the profit
	// check (1.0) and the ROE erosion check (2.0) both fire.
	th := runOne(t, "ZOMATO", &marketdata.Statements{
		Revenue:   []float64{1000, 1000, 1000},
		NetIncome: []float64{80, 100, 120},
		Equity:    []float64{1000, 1000, 1000},
	})
	if th.PenaltyScore != 3.0 {
		t.Errorf("Expected penalty 3.0, got %f (%v)", th.PenaltyScore, th.Drivers)
	}
	if th.Status != StatusBroken {
		t.Errorf("Expected %s, got %s", StatusBroken, th.Status)
	}
	if !hasDriver(th, "ROE eroding") {
		t.Errorf("Expected ROE driver, got %v", th.Drivers)
	}
}

func TestDilutionBelowWeakeningThreshold(t *testing.T) {
	th := runOne(t, "ZOMATO", &marketdata.Statements{
		Revenue:      []float64{1100, 1000},
		NetIncome:    []float64{110, 100},
		SharesIssued: []float64{110, 100},
	})
	if th.PenaltyScore != 0.5 {
		t.Errorf("Expected penalty 0.5, got %f (%v)", th.PenaltyScore, th.Drivers)
	}
	if th.Status != StatusIntact {
		t.Errorf("Expected %s at 0.5, got %s", StatusIntact, th.Status)
	}
}

func TestInsufficientDataSinglePeriod(t *testing.T) {
	th := runOne(t, "NEWIPO", &marketdata.Statements{Revenue: []float64{1000}})
	if th.Status != StatusInsufficient {
		t.Errorf("Expected %s, got %s", StatusInsufficient, th.Status)
	}

	snap := marketdata.NewSnapshot()
	th2 := New(store.Default()).Run([]types.Holding{equityRow("NODATA")}, snap).Get("NODATA")
	if th2.Status != StatusInsufficient {
		t.Errorf("Expected %s for missing statements, got %s", StatusInsufficient, th2.Status)
	}
}

func TestNonEquityNotApplicable(t *testing.T) {
	snap := marketdata.NewSnapshot()
	row := types.Holding{Symbol: "SGBAUG29", Type: types.InstrumentSGB, CurrentValue: 5000}
	th := New(store.Default()).Run([]types.Holding{row}, snap).Get("SGBAUG29")
	if th.Status != StatusNotApplicable {
		t.Errorf("Expected %s, got %s", StatusNotApplicable, th.Status)
	}
}

func TestDeterioratingSeries(t *testing.T) {
	cases := []struct {
		name   string
		series []float64
		want   bool
	}{
		{"sharp latest drop", []float64{850, 1000}, true},
		{"mild dip", []float64{950, 1000}, false},
		{"monotonic three-year slide", []float64{950, 980, 1000}, true},
		{"recovery after dip", []float64{1050, 950, 1000}, false},
		{"too short", []float64{1000}, false},
	}
	for _, tc := range cases {
		if got := deteriorating(tc.series, 0.10); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
