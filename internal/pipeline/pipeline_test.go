package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// stubProvider serves a fixed snapshot and records the requested universe.
type stubProvider struct {
	snap    *marketdata.Snapshot
	symbols []string
}

func (p *stubProvider) Fetch(ctx context.Context, symbols []string) (*marketdata.Snapshot, error) {
	p.symbols = symbols
	return p.snap, nil
}

func fptr(v float64) *float64 { return &v }

func testSnapshot() *marketdata.Snapshot {
	snap := marketdata.NewSnapshot()
	snap.Fundamentals["WIPRO"] = marketdata.Fundamentals{TrailingPE: fptr(30), ReturnOnEquity: fptr(0.10)}
	snap.Fundamentals["TCS"] = marketdata.Fundamentals{TrailingPE: fptr(25), ReturnOnEquity: fptr(0.18)}
	snap.Fundamentals["INFY"] = marketdata.Fundamentals{TrailingPE: fptr(26)}
	snap.Fundamentals["HCLTECH"] = marketdata.Fundamentals{TrailingPE: fptr(24)}
	snap.Statements["WIPRO"] = &marketdata.Statements{
		Revenue:         []float64{800, 900, 1000},
		NetIncome:       []float64{40, 60, 80},
		OperatingIncome: []float64{60, 70, 85},
		InterestExpense: []float64{50, 48, 45},
	}
	return snap
}

func testRows() []types.Holding {
	return []types.Holding{
		{Symbol: "WIPRO", Type: types.InstrumentEquity, Quantity: 100, CurrentValue: 60000},
		{Symbol: "SGBAUG29", Type: types.InstrumentSGB, Quantity: 10, CurrentValue: 40000},
	}
}

func TestRunRejectsEmptyPortfolio(t *testing.T) {
	p := New(store.Default(), &stubProvider{snap: marketdata.NewSnapshot()})
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Error("Expected error for empty holdings")
	}
}

func TestRunRecomputesWeightsAndCoversAllHoldings(t *testing.T) {
	p := New(store.Default(), &stubProvider{snap: testSnapshot()})
	res, err := p.Run(context.Background(), testRows())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Holdings[0].WeightPct != 60 || res.Holdings[1].WeightPct != 40 {
		t.Errorf("Expected weights 60/40, got %.1f/%.1f", res.Holdings[0].WeightPct, res.Holdings[1].WeightPct)
	}
	if len(res.Verdicts) != len(res.Holdings) {
		t.Errorf("Expected one verdict per holding, got %d for %d", len(res.Verdicts), len(res.Holdings))
	}

	// WIPRO's statements show a collapsing business; the cascade must exit.
	var wipro *types.Verdict
	for i := range res.Verdicts {
		if res.Verdicts[i].Symbol == "WIPRO" {
			wipro = &res.Verdicts[i]
		}
	}
	if wipro == nil {
		t.Fatal("Missing WIPRO verdict")
	}
	if wipro.Action != types.ActionExit || wipro.Urgency != types.UrgencyCritical {
		t.Errorf("Expected EXIT/Critical, got %s/%s", wipro.Action, wipro.Urgency)
	}
	if res.Actions.Bias != "De-Risk" {
		t.Errorf("Expected De-Risk bias, got %s", res.Actions.Bias)
	}
}

func TestFetchUniverseIncludesCaptainsAndBenchmark(t *testing.T) {
	cfg := store.Default()
	stub := &stubProvider{snap: testSnapshot()}
	if _, err := New(cfg, stub).Run(context.Background(), testRows()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[string]bool{"WIPRO": false, "TCS": false, "HDFCBANK": false, cfg.Benchmark.Symbol: false}
	for _, s := range stub.symbols {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for s, found := range want {
		if !found {
			t.Errorf("Expected %s in fetch universe", s)
		}
	}

	// No duplicates even though TCS is both captain and benchmark peer.
	seen := map[string]int{}
	for _, s := range stub.symbols {
		seen[s]++
		if seen[s] > 1 {
			t.Errorf("Symbol %s requested twice", s)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	p := New(store.Default(), &stubProvider{snap: testSnapshot()})

	a, err := p.Run(context.Background(), testRows())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := p.Run(context.Background(), testRows())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a.Verdicts, b.Verdicts) {
		t.Errorf("Verdicts differ between identical runs:\n%v\n%v", a.Verdicts, b.Verdicts)
	}
	if !reflect.DeepEqual(a.Actions, b.Actions) {
		t.Errorf("Action lists differ between identical runs")
	}
}
