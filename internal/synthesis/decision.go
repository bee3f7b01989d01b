// Package synthesis merges the five engine reports into one verdict per
// holding through a strict priority cascade, then ranks and truncates the
// non-trivial verdicts into the portfolio action list.
package synthesis

import (
	"fmt"
	"sort"

	"github.com/kdeep17/portfolio-ai/internal/engines/events"
	"github.com/kdeep17/portfolio-ai/internal/engines/opportunity"
	"github.com/kdeep17/portfolio-ai/internal/engines/risk"
	"github.com/kdeep17/portfolio-ai/internal/engines/thesis"
	"github.com/kdeep17/portfolio-ai/internal/engines/valuation"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Portfolio bias labels.
const (
	BiasDeRisk   = "De-Risk"
	BiasOptimize = "Optimize"
	BiasHold     = "Hold"
)

// signals is everything the cascade can see for one holding.
type signals struct {
	holding types.Holding
	risk    risk.HoldingRisk
	val     valuation.HoldingValuation
	thesis  thesis.HoldingThesis
	drag    opportunity.HoldingDrag
	events  []events.Event
}

// rule is one rung of the cascade. The first rule whose match returns a
// verdict wins; later rules are never evaluated for that holding.
type rule struct {
	name  string
	match func(*Engine, signals) *types.Verdict
}

type Engine struct {
	cfg   *store.Config
	rules []rule
}

func New(cfg *store.Config) *Engine {
	e := &Engine{cfg: cfg}
	e.rules = []rule{
		{"critical-event", (*Engine).matchCriticalEvent},
		{"thesis-broken", (*Engine).matchThesisBroken},
		{"liquidity-trap", (*Engine).matchLiquidityTrap},
		{"volatility-spike", (*Engine).matchVolatilitySpike},
		{"capital-drag", (*Engine).matchCapitalDrag},
		{"valuation-extreme", (*Engine).matchValuationExtreme},
		{"falling-knife", (*Engine).matchFallingKnife},
		{"valuation-watch", (*Engine).matchValuationWatch},
		{"default-hold", (*Engine).matchDefault},
	}
	return e
}

// Decide produces exactly one verdict for every holding. Non-equity
// instruments bypass the cascade entirely.
func (e *Engine) Decide(rows []types.Holding, riskRep *risk.Report, valRep *valuation.Report,
	thesisRep *thesis.Report, oppRep *opportunity.Report, evRep *events.Report) []types.Verdict {

	verdicts := make([]types.Verdict, 0, len(rows))
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			verdicts = append(verdicts, types.Verdict{
				Symbol:  h.Symbol,
				Action:  types.ActionHold,
				Reason:  "Non-equity asset",
				Urgency: types.UrgencyLow,
			})
			continue
		}

		sig := signals{
			holding: h,
			risk:    riskRep.Get(h.Symbol),
			val:     valRep.Get(h.Symbol),
			thesis:  thesisRep.Get(h.Symbol),
			drag:    oppRep.Get(h.Symbol),
			events:  evRep.ForSymbol(h.Symbol),
		}
		for _, r := range e.rules {
			if v := r.match(e, sig); v != nil {
				v.Symbol = h.Symbol
				v.Rule = r.name
				verdicts = append(verdicts, *v)
				break
			}
		}
	}
	return verdicts
}

// Rule 1: governance or regulatory news is an unconditional veto.
func (e *Engine) matchCriticalEvent(sig signals) *types.Verdict {
	for _, ev := range sig.events {
		if ev.Category == events.CategoryGovernanceRisk || ev.Category == events.CategoryRegulatoryHit {
			return &types.Verdict{
				Action:  types.ActionExit,
				Reason:  fmt.Sprintf("%s: %s", ev.Category, ev.Headline),
				Urgency: types.UrgencyCritical,
			}
		}
	}
	return nil
}

// Rule 2: a broken thesis dominates everything below it.
func (e *Engine) matchThesisBroken(sig signals) *types.Verdict {
	if sig.thesis.Status != thesis.StatusBroken {
		return nil
	}
	reason := "Investment thesis broken"
	if len(sig.thesis.Drivers) > 0 {
		reason = fmt.Sprintf("Investment thesis broken: %s", sig.thesis.Drivers[0])
	}
	return &types.Verdict{Action: types.ActionExit, Reason: reason, Urgency: types.UrgencyCritical}
}

// Rule 3: oversized small-caps get trimmed before anything subtler.
func (e *Engine) matchLiquidityTrap(sig signals) *types.Verdict {
	if sig.risk.RiskTag != risk.TagCriticalLiquidity {
		return nil
	}
	return &types.Verdict{
		Action:  types.ActionTrim,
		Reason:  fmt.Sprintf("Small-cap at %.1f%% weight exceeds liquidity comfort", sig.holding.WeightPct),
		Urgency: types.UrgencyHigh,
	}
}

// Rule 4: extreme volatility is survivable in a strong trend, fatal in a weak one.
func (e *Engine) matchVolatilitySpike(sig signals) *types.Verdict {
	if sig.risk.RiskTag != risk.TagCriticalVolatility {
		return nil
	}
	if sig.drag.Momentum > e.cfg.Decision.MomentumVolTrim {
		return &types.Verdict{
			Action:  types.ActionTrim,
			Reason:  fmt.Sprintf("Volatility %.0f%% annualized, strong trend allows partial exit", sig.risk.Volatility*100),
			Urgency: types.UrgencyMedium,
		}
	}
	return &types.Verdict{
		Action:  types.ActionExit,
		Reason:  fmt.Sprintf("Volatility %.0f%% annualized with weakening trend", sig.risk.Volatility*100),
		Urgency: types.UrgencyHigh,
	}
}

// Rule 5: severe capital drag, softened to REPLACE when a vetted swap exists.
func (e *Engine) matchCapitalDrag(sig signals) *types.Verdict {
	if sig.drag.DragScore < e.cfg.Drag.CriticalCutoff {
		return nil
	}
	if len(sig.drag.Candidates) > 0 {
		return &types.Verdict{
			Action:  types.ActionReplace,
			Reason:  fmt.Sprintf("Capital drag %.0f; switch candidate %s available", sig.drag.DragScore, sig.drag.Candidates[0].Symbol),
			Urgency: types.UrgencyHigh,
		}
	}
	return &types.Verdict{
		Action:  types.ActionExit,
		Reason:  fmt.Sprintf("Capital drag %.0f with no suitable replacement", sig.drag.DragScore),
		Urgency: types.UrgencyMedium,
	}
}

// Rule 6: extreme valuation stress. Ride the winner with a trim, or exit
// the bursting bubble.
func (e *Engine) matchValuationExtreme(sig signals) *types.Verdict {
	if sig.val.StressScore < e.cfg.Decision.StressExtreme {
		return nil
	}
	if sig.drag.Momentum > e.cfg.Decision.MomentumRide {
		return &types.Verdict{
			Action:  types.ActionTrim,
			Reason:  fmt.Sprintf("%s with strong momentum; take chips off the table", sig.val.Status),
			Urgency: types.UrgencyMedium,
		}
	}
	return &types.Verdict{
		Action:  types.ActionExit,
		Reason:  fmt.Sprintf("%s and momentum fading", sig.val.Status),
		Urgency: types.UrgencyHigh,
	}
}

// Rule 7: weakening fundamentals plus a downtrend.
func (e *Engine) matchFallingKnife(sig signals) *types.Verdict {
	if sig.thesis.Status == thesis.StatusWeakening && sig.drag.Momentum < e.cfg.Decision.MomentumKnife {
		return &types.Verdict{
			Action:  types.ActionExit,
			Reason:  "Weakening fundamentals confirmed by price downtrend",
			Urgency: types.UrgencyHigh,
		}
	}
	return nil
}

// Rule 8: rich but fundamentally sound. Watch, don't act.
func (e *Engine) matchValuationWatch(sig signals) *types.Verdict {
	if sig.val.StressScore >= e.cfg.Decision.StressWatch && sig.thesis.Status == thesis.StatusIntact {
		return &types.Verdict{
			Action:  types.ActionWatch,
			Reason:  fmt.Sprintf("%s but thesis intact", sig.val.Status),
			Urgency: types.UrgencyLow,
		}
	}
	return nil
}

// Rule 9: nothing fired.
func (e *Engine) matchDefault(sig signals) *types.Verdict {
	return &types.Verdict{
		Action:  types.ActionHold,
		Reason:  "No actionable signal",
		Urgency: types.UrgencyLow,
	}
}

// Aggregate ranks non-trivial verdicts by severity x urgency, truncates to
// the configured bound and labels the portfolio bias.
func (e *Engine) Aggregate(verdicts []types.Verdict) types.ActionList {
	var ranked []types.RankedAction
	for _, v := range verdicts {
		if v.Action == types.ActionHold || v.Action == types.ActionWatch {
			continue
		}
		ranked = append(ranked, types.RankedAction{
			Verdict: v,
			Score:   v.Action.BaseScore() * v.Urgency.Multiplier(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > e.cfg.Decision.MaxActions {
		ranked = ranked[:e.cfg.Decision.MaxActions]
	}

	list := types.ActionList{Actions: ranked}
	switch {
	case len(ranked) == 0:
		list.DoNothing = true
		list.Bias = BiasHold
	case hasExit(ranked):
		list.Bias = BiasDeRisk
	default:
		list.Bias = BiasOptimize
	}
	return list
}

func hasExit(ranked []types.RankedAction) bool {
	for _, r := range ranked {
		if r.Action == types.ActionExit {
			return true
		}
	}
	return false
}
