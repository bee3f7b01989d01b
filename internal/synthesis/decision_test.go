package synthesis

import (
	"strings"
	"testing"

	"github.com/kdeep17/portfolio-ai/internal/engines/events"
	"github.com/kdeep17/portfolio-ai/internal/engines/opportunity"
	"github.com/kdeep17/portfolio-ai/internal/engines/risk"
	"github.com/kdeep17/portfolio-ai/internal/engines/thesis"
	"github.com/kdeep17/portfolio-ai/internal/engines/valuation"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

const sym = "TCS"

// decideOne routes a single synthetic holding through the cascade.
func decideOne(t *testing.T, hr risk.HoldingRisk, hv valuation.HoldingValuation,
	ht thesis.HoldingThesis, hd opportunity.HoldingDrag, evs []events.Event) types.Verdict {
	t.Helper()

	h := types.Holding{Symbol: sym, Type: types.InstrumentEquity, CurrentValue: 10000, WeightPct: 10}
	for i := range evs {
		evs[i].Symbol = sym
	}

	verdicts := New(store.Default()).Decide(
		[]types.Holding{h},
		&risk.Report{Holdings: map[string]risk.HoldingRisk{sym: hr}},
		&valuation.Report{Holdings: map[string]valuation.HoldingValuation{sym: hv}},
		&thesis.Report{Holdings: map[string]thesis.HoldingThesis{sym: ht}},
		&opportunity.Report{Holdings: map[string]opportunity.HoldingDrag{sym: hd}},
		&events.Report{Events: evs},
	)
	if len(verdicts) != 1 {
		t.Fatalf("Expected 1 verdict, got %d", len(verdicts))
	}
	return verdicts[0]
}

func neutralDrag() opportunity.HoldingDrag {
	return opportunity.HoldingDrag{Symbol: sym, Momentum: 50, Bucket: opportunity.BucketDefend}
}

func intact() thesis.HoldingThesis {
	return thesis.HoldingThesis{Symbol: sym, Status: thesis.StatusIntact}
}

func TestNonEquityBypassesCascade(t *testing.T) {
	h := types.Holding{Symbol: "SGBAUG29", Type: types.InstrumentSGB, CurrentValue: 5000}
	verdicts := New(store.Default()).Decide([]types.Holding{h},
		&risk.Report{}, &valuation.Report{}, &thesis.Report{}, &opportunity.Report{}, &events.Report{})
	if len(verdicts) != 1 {
		t.Fatalf("Expected 1 verdict, got %d", len(verdicts))
	}
	v := verdicts[0]
	if v.Action != types.ActionHold || v.Reason != "Non-equity asset" || v.Urgency != types.UrgencyLow {
		t.Errorf("Expected passive HOLD for non-equity, got %+v", v)
	}
}

func TestCriticalEventVetoesEverything(t *testing.T) {
	// Even with a pristine thesis and valuation, a governance event exits.
	v := decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, intact(), neutralDrag(),
		[]events.Event{{Category: events.CategoryGovernanceRisk, Headline: "Auditor resigns citing irregularities"}})
	if v.Action != types.ActionExit || v.Urgency != types.UrgencyCritical {
		t.Errorf("Expected EXIT/Critical, got %s/%s", v.Action, v.Urgency)
	}
	if v.Rule != "critical-event" {
		t.Errorf("Expected critical-event rule, got %s", v.Rule)
	}
	if !strings.Contains(v.Reason, "Auditor resigns") {
		t.Errorf("Expected headline in reason, got %q", v.Reason)
	}
}

func TestBrokenThesisAlwaysExitsCritical(t *testing.T) {
	// Strong momentum and cheap valuation must not rescue a broken thesis.
	ht := thesis.HoldingThesis{Symbol: sym, Status: thesis.StatusBroken, Drivers: []string{"Interest coverage critical at 1.2x"}}
	hd := opportunity.HoldingDrag{Symbol: sym, Momentum: 80, DragScore: 100, Bucket: opportunity.BucketReplace}
	hv := valuation.HoldingValuation{Symbol: sym, Status: valuation.StatusUndervalued, StressScore: 30}

	v := decideOne(t, risk.HoldingRisk{}, hv, ht, hd, nil)
	if v.Action != types.ActionExit || v.Urgency != types.UrgencyCritical {
		t.Errorf("Expected EXIT/Critical, got %s/%s", v.Action, v.Urgency)
	}
	if !strings.Contains(v.Reason, "Interest coverage") {
		t.Errorf("Expected first driver in reason, got %q", v.Reason)
	}
}

func TestThesisOutranksLiquidityTrap(t *testing.T) {
	ht := thesis.HoldingThesis{Symbol: sym, Status: thesis.StatusBroken}
	hr := risk.HoldingRisk{Symbol: sym, RiskTag: risk.TagCriticalLiquidity}
	v := decideOne(t, hr, valuation.HoldingValuation{}, ht, neutralDrag(), nil)
	if v.Rule != "thesis-broken" {
		t.Errorf("Expected thesis-broken to fire first, got %s", v.Rule)
	}
}

func TestLiquidityTrapTrims(t *testing.T) {
	hr := risk.HoldingRisk{Symbol: sym, RiskTag: risk.TagCriticalLiquidity}
	v := decideOne(t, hr, valuation.HoldingValuation{}, intact(), neutralDrag(), nil)
	if v.Action != types.ActionTrim || v.Urgency != types.UrgencyHigh {
		t.Errorf("Expected TRIM/High, got %s/%s", v.Action, v.Urgency)
	}
}

func TestVolatilitySpikeBranchesOnMomentum(t *testing.T) {
	hr := risk.HoldingRisk{Symbol: sym, RiskTag: risk.TagCriticalVolatility, Volatility: 0.70}

	strong := neutralDrag()
	strong.Momentum = 70
	v := decideOne(t, hr, valuation.HoldingValuation{}, intact(), strong, nil)
	if v.Action != types.ActionTrim || v.Urgency != types.UrgencyMedium {
		t.Errorf("Expected TRIM/Medium in strong trend, got %s/%s", v.Action, v.Urgency)
	}

	v = decideOne(t, hr, valuation.HoldingValuation{}, intact(), neutralDrag(), nil)
	if v.Action != types.ActionExit || v.Urgency != types.UrgencyHigh {
		t.Errorf("Expected EXIT/High in weak trend, got %s/%s", v.Action, v.Urgency)
	}
}

func TestCapitalDragPrefersReplace(t *testing.T) {
	hd := opportunity.HoldingDrag{
		Symbol: sym, Momentum: 50, DragScore: 90, Bucket: opportunity.BucketReplace,
		Candidates: []opportunity.Candidate{{Symbol: "INFY", ROE: 0.22}},
	}
	v := decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, intact(), hd, nil)
	if v.Action != types.ActionReplace || v.Urgency != types.UrgencyHigh {
		t.Errorf("Expected REPLACE/High with candidate, got %s/%s", v.Action, v.Urgency)
	}
	if !strings.Contains(v.Reason, "INFY") {
		t.Errorf("Expected candidate symbol in reason, got %q", v.Reason)
	}

	hd.Candidates = nil
	v = decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, intact(), hd, nil)
	if v.Action != types.ActionExit || v.Urgency != types.UrgencyMedium {
		t.Errorf("Expected EXIT/Medium without candidate, got %s/%s", v.Action, v.Urgency)
	}
}

func TestValuationExtremeBranchesOnMomentum(t *testing.T) {
	hv := valuation.HoldingValuation{Symbol: sym, Status: valuation.StatusHighlyStretched, StressScore: 90}

	rider := neutralDrag()
	rider.Momentum = 80
	v := decideOne(t, risk.HoldingRisk{}, hv, intact(), rider, nil)
	if v.Action != types.ActionTrim || v.Urgency != types.UrgencyMedium {
		t.Errorf("Expected TRIM/Medium riding strong momentum, got %s/%s", v.Action, v.Urgency)
	}

	v = decideOne(t, risk.HoldingRisk{}, hv, intact(), neutralDrag(), nil)
	if v.Action != types.ActionExit || v.Urgency != types.UrgencyHigh {
		t.Errorf("Expected EXIT/High with fading momentum, got %s/%s", v.Action, v.Urgency)
	}
}

func TestFallingKnife(t *testing.T) {
	ht := thesis.HoldingThesis{Symbol: sym, Status: thesis.StatusWeakening}
	weak := neutralDrag()
	weak.Momentum = 30
	v := decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, ht, weak, nil)
	if v.Action != types.ActionExit || v.Urgency != types.UrgencyHigh {
		t.Errorf("Expected EXIT/High, got %s/%s", v.Action, v.Urgency)
	}
	if v.Rule != "falling-knife" {
		t.Errorf("Expected falling-knife rule, got %s", v.Rule)
	}

	// Weakening with decent momentum is not a knife; nothing else fires.
	v = decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, ht, neutralDrag(), nil)
	if v.Action != types.ActionHold {
		t.Errorf("Expected HOLD, got %s (%s)", v.Action, v.Rule)
	}
}

func TestValuationWatchRequiresIntactThesis(t *testing.T) {
	hv := valuation.HoldingValuation{Symbol: sym, Status: valuation.StatusOvervalued, StressScore: 75}
	v := decideOne(t, risk.HoldingRisk{}, hv, intact(), neutralDrag(), nil)
	if v.Action != types.ActionWatch || v.Urgency != types.UrgencyLow {
		t.Errorf("Expected WATCH/Low, got %s/%s", v.Action, v.Urgency)
	}
}

func TestDefaultHold(t *testing.T) {
	v := decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, intact(), neutralDrag(), nil)
	if v.Action != types.ActionHold || v.Rule != "default-hold" {
		t.Errorf("Expected default HOLD, got %s (%s)", v.Action, v.Rule)
	}
}

func TestAggregateRanksAndTruncates(t *testing.T) {
	e := New(store.Default())
	verdicts := []types.Verdict{
		{Symbol: "A", Action: types.ActionHold, Urgency: types.UrgencyLow},
		{Symbol: "B", Action: types.ActionWatch, Urgency: types.UrgencyLow},
		{Symbol: "C", Action: types.ActionTrim, Urgency: types.UrgencyMedium},    // 60
		{Symbol: "D", Action: types.ActionExit, Urgency: types.UrgencyCritical},  // 200
		{Symbol: "E", Action: types.ActionReplace, Urgency: types.UrgencyHigh},   // 120
		{Symbol: "F", Action: types.ActionExit, Urgency: types.UrgencyHigh},      // 150
	}

	list := e.Aggregate(verdicts)
	if list.DoNothing {
		t.Error("Expected actionable list")
	}
	if len(list.Actions) != 3 {
		t.Fatalf("Expected 3 surfaced actions, got %d", len(list.Actions))
	}
	want := []string{"D", "F", "E"}
	for i, w := range want {
		if list.Actions[i].Symbol != w {
			t.Errorf("Position %d: expected %s, got %s", i, w, list.Actions[i].Symbol)
		}
	}
	if list.Bias != BiasDeRisk {
		t.Errorf("Expected %s, got %s", BiasDeRisk, list.Bias)
	}
}

func TestSeverityMonotonicInDrag(t *testing.T) {
	// Raising the drag score with everything else fixed must never soften
	// the action.
	prev := 0
	for _, drag := range []float64{10, 50, 86, 100} {
		hd := neutralDrag()
		hd.DragScore = drag
		v := decideOne(t, risk.HoldingRisk{}, valuation.HoldingValuation{}, intact(), hd, nil)
		if v.Action.Severity() < prev {
			t.Errorf("Drag %.0f produced less severe action %s", drag, v.Action)
		}
		prev = v.Action.Severity()
	}
}

func TestAggregateBiasLabels(t *testing.T) {
	e := New(store.Default())

	list := e.Aggregate([]types.Verdict{{Symbol: "A", Action: types.ActionTrim, Urgency: types.UrgencyMedium}})
	if list.Bias != BiasOptimize {
		t.Errorf("Expected %s without exits, got %s", BiasOptimize, list.Bias)
	}

	list = e.Aggregate([]types.Verdict{{Symbol: "A", Action: types.ActionHold, Urgency: types.UrgencyLow}})
	if !list.DoNothing || list.Bias != BiasHold {
		t.Errorf("Expected do-nothing Hold list, got %+v", list)
	}
}
