// Package opportunity estimates the capital drag of each holding and, for
// the worst offenders, searches its sector captains for vetted replacement
// candidates.
package opportunity

import (
	"fmt"
	"math"
	"sort"

	"github.com/kdeep17/portfolio-ai/internal/engines/risk"
	"github.com/kdeep17/portfolio-ai/internal/engines/thesis"
	"github.com/kdeep17/portfolio-ai/internal/engines/valuation"
	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/ta"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Drag buckets.
const (
	BucketReplace = "Replace"
	BucketMonitor = "Monitor"
	BucketDefend  = "Defend"
)

// Candidate is a vetted sector-peer replacement suggestion.
type Candidate struct {
	Symbol    string   `json:"symbol"`
	ROE       float64  `json:"roe"`
	Momentum  float64  `json:"momentum"`
	Rationale []string `json:"rationale"` // Quality / Value / Momentum tags
}

// HoldingDrag is the per-symbol opportunity-cost verdict.
type HoldingDrag struct {
	Symbol     string      `json:"symbol"`
	Momentum   float64     `json:"momentum_score"`
	DragScore  float64     `json:"drag_score"`
	Bucket     string      `json:"bucket"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type Report struct {
	Holdings map[string]HoldingDrag `json:"holdings"`
}

// Get returns a neutral Defend record for unknown symbols.
func (r *Report) Get(symbol string) HoldingDrag {
	if r == nil {
		return HoldingDrag{Bucket: BucketDefend, Momentum: 50}
	}
	if d, ok := r.Holdings[symbol]; ok {
		return d
	}
	return HoldingDrag{Symbol: symbol, Bucket: BucketDefend, Momentum: 50}
}

type Engine struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run consumes the level-1 engine reports, so it always executes after them.
func (e *Engine) Run(rows []types.Holding, snap *marketdata.Snapshot,
	riskRep *risk.Report, valRep *valuation.Report, thesisRep *thesis.Report) *Report {

	held := map[string]bool{}
	for _, h := range rows {
		held[h.Symbol] = true
	}

	report := &Report{Holdings: map[string]HoldingDrag{}}
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			report.Holdings[h.Symbol] = HoldingDrag{Symbol: h.Symbol, Bucket: BucketDefend, Momentum: 50}
			continue
		}

		momentum := ta.MomentumScore(snap.Closes(h.Symbol))
		drag := e.dragScore(momentum, riskRep.Get(h.Symbol), valRep.Get(h.Symbol), thesisRep.Get(h.Symbol))

		d := HoldingDrag{
			Symbol:    h.Symbol,
			Momentum:  momentum,
			DragScore: round1(drag),
			Bucket:    e.bucket(drag),
		}
		if d.Bucket == BucketReplace {
			d.Candidates = e.findCandidates(h.Symbol, momentum, snap, valRep, thesisRep, held)
		}
		report.Holdings[h.Symbol] = d
	}
	return report
}

// dragScore blends thesis, valuation stress, risk contribution and inverse
// momentum into a 0-100 composite. A broken thesis overrides the blend.
func (e *Engine) dragScore(momentum float64, hr risk.HoldingRisk, hv valuation.HoldingValuation, ht thesis.HoldingThesis) float64 {
	if ht.Status == thesis.StatusBroken {
		return 100
	}

	thesisPenalty := 0.0
	if ht.Status == thesis.StatusWeakening {
		thesisPenalty = 40
	}

	riskTerm := math.Min(hr.ContributionScore*5, 100)

	cd := e.cfg.Drag
	score := thesisPenalty*cd.WeightThesis +
		hv.StressScore*cd.WeightValuation +
		riskTerm*cd.WeightRisk +
		(100-momentum)*cd.WeightMomentum
	return math.Min(score, 100)
}

func (e *Engine) bucket(drag float64) string {
	switch {
	case drag >= e.cfg.Drag.ReplaceCutoff:
		return BucketReplace
	case drag >= e.cfg.Drag.MonitorCutoff:
		return BucketMonitor
	default:
		return BucketDefend
	}
}

// findCandidates screens the holding's sector captains. A candidate must
// beat the incumbent on returns or momentum, must not itself be expensive,
// and must carry at least neutral momentum.
func (e *Engine) findCandidates(symbol string, holdingMomentum float64, snap *marketdata.Snapshot,
	valRep *valuation.Report, thesisRep *thesis.Report, held map[string]bool) []Candidate {

	info, _ := snap.Info(symbol)
	sector := e.cfg.SectorOf(symbol, info.Industry)
	cd := e.cfg.Drag

	holdingROE := 0.0
	if info.ReturnOnEquity != nil {
		holdingROE = *info.ReturnOnEquity
	}
	brokenThesis := thesisRep.Get(symbol).Status == thesis.StatusBroken

	var out []Candidate
	for _, peer := range e.cfg.Sectors.Captains[sector] {
		if peer == symbol || held[peer] {
			continue
		}
		pInfo, ok := snap.Info(peer)
		if !ok {
			continue
		}

		peerROE := 0.0
		if pInfo.ReturnOnEquity != nil {
			peerROE = *pInfo.ReturnOnEquity
		}
		peerMomentum := ta.MomentumScore(snap.Closes(peer))

		var rationale []string

		// Gate 1: quality or momentum superiority.
		switch {
		case holdingROE > 0 && peerROE > holdingROE*cd.SwitchHurdle:
			rationale = append(rationale, fmt.Sprintf("Quality: ROE %.1f%% vs %.1f%%", peerROE*100, holdingROE*100))
		case holdingMomentum < cd.WeakMomentum && peerMomentum > cd.StrongMomentum:
			rationale = append(rationale, "Momentum: strong trend replacing a weak one")
		default:
			continue
		}

		// Gate 2: the candidate must not be expensive itself.
		switch {
		case cheaperThan(pInfo, info):
			rationale = append(rationale, "Value: cheaper than incumbent")
		case pInfo.PEGRatio != nil && *pInfo.PEGRatio > 0 && *pInfo.PEGRatio < e.cfg.Valuation.PEGMax:
			rationale = append(rationale, fmt.Sprintf("Value: growth-adjusted (PEG %.2f)", *pInfo.PEGRatio))
		case brokenThesis:
			// An incumbent with a broken thesis relaxes the price gate.
		default:
			continue
		}

		// Gate 3: never rotate into a falling knife.
		if peerMomentum <= cd.CandidateMinMomentum {
			continue
		}
		if peerMomentum > cd.StrongMomentum {
			rationale = append(rationale, fmt.Sprintf("Momentum: score %.0f", peerMomentum))
		}

		out = append(out, Candidate{
			Symbol:    peer,
			ROE:       round4(peerROE),
			Momentum:  peerMomentum,
			Rationale: rationale,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ROE != out[j].ROE {
			return out[i].ROE > out[j].ROE
		}
		return out[i].Momentum > out[j].Momentum
	})
	if len(out) > cd.MaxCandidates {
		out = out[:cd.MaxCandidates]
	}
	return out
}

func cheaperThan(candidate, incumbent marketdata.Fundamentals) bool {
	if candidate.TrailingPE == nil || incumbent.TrailingPE == nil {
		return false
	}
	return *candidate.TrailingPE > 0 && *candidate.TrailingPE < *incumbent.TrailingPE
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
