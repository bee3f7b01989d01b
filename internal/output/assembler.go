// Package output assembles one pipeline result into the advisory report,
// the single document the presentation layer consumes. It performs no
// decision logic of its own.
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/kdeep17/portfolio-ai/internal/engines/events"
	"github.com/kdeep17/portfolio-ai/internal/engines/opportunity"
	"github.com/kdeep17/portfolio-ai/internal/engines/thesis"
	"github.com/kdeep17/portfolio-ai/internal/pipeline"
	"github.com/kdeep17/portfolio-ai/internal/quant"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Health score component weights. Thesis strength is paramount.
const (
	weightFundamental = 0.40
	weightEfficiency  = 0.30
	weightValuation   = 0.20
	weightRisk        = 0.10
)

const reportVersion = "Premium v2.0"

type Metadata struct {
	RunID    string `json:"run_id"`
	Version  string `json:"version"`
	DataHash string `json:"data_hash"`
}

type RiskProfile struct {
	Label      string  `json:"label"`
	Beta       float64 `json:"beta"`
	DailyVaR95 float64 `json:"daily_var_95_amt"`
	CashPct    float64 `json:"cash_position_pct"`
}

type AdvisorySummary struct {
	TotalActions    int            `json:"total_actions"`
	CriticalActions int            `json:"critical_actions"`
	Breakdown       map[string]int `json:"breakdown"`
}

type Summary struct {
	TotalValue    float64         `json:"total_value"`
	HealthScore   int             `json:"health_score"`
	HoldingsCount int             `json:"holdings_count"`
	RiskProfile   RiskProfile     `json:"risk_profile"`
	Advisory      AdvisorySummary `json:"advisory_summary"`
	CriticalFlags []string        `json:"critical_flags"`
}

type HoldingMeta struct {
	Sector    string  `json:"sector"`
	WeightPct float64 `json:"weight_pct"`
	Price     float64 `json:"current_price"`
	Value     float64 `json:"invested_val"`
}

type HoldingAnalytics struct {
	ThesisStatus    string  `json:"thesis_status"`
	ValuationRating string  `json:"valuation_rating"`
	MomentumScore   float64 `json:"momentum_score"`
	RiskBeta        float64 `json:"risk_beta"`
	VaRContribution float64 `json:"var_contribution"`
	DragScore       float64 `json:"capital_drag_score"`
}

type HoldingAdvisory struct {
	Action       types.Action            `json:"action"`
	Rationale    string                  `json:"rationale"`
	Urgency      types.Urgency           `json:"urgency"`
	Alternatives []opportunity.Candidate `json:"alternatives,omitempty"`
}

type HoldingBlock struct {
	Symbol    string           `json:"symbol"`
	Type      string           `json:"type"`
	Meta      HoldingMeta      `json:"meta"`
	Analytics HoldingAnalytics `json:"analytics"`
	Advisory  HoldingAdvisory  `json:"advisory"`
}

// Report is the full advisory document.
type Report struct {
	Metadata     Metadata                  `json:"metadata"`
	Summary      Summary                   `json:"summary"`
	Actions      []types.RankedAction      `json:"actions"`
	Holdings     []HoldingBlock            `json:"holdings"`
	Intelligence []events.Event            `json:"intelligence"`
	Optimization *quant.OptimizationResult `json:"optimization,omitempty"`
	Simulation   *quant.SimulationResult   `json:"simulation,omitempty"`
	Narratives   map[string]string         `json:"narratives,omitempty"`
}

type Assembler struct {
	cfg *store.Config
	now func() time.Time
}

func NewAssembler(cfg *store.Config) *Assembler {
	return &Assembler{cfg: cfg, now: time.Now}
}

func (a *Assembler) Assemble(res *pipeline.Result) *Report {
	totalValue := 0.0
	equityWeight := 0.0
	for _, h := range res.Holdings {
		totalValue += h.CurrentValue
		if h.Type.IsEquityLike() {
			equityWeight += h.WeightPct
		}
	}

	verdictBySym := map[string]types.Verdict{}
	for _, v := range res.Verdicts {
		verdictBySym[v.Symbol] = v
	}

	breakdown := map[string]int{"EXIT": 0, "TRIM": 0, "REPLACE": 0}
	for _, act := range res.Actions.Actions {
		breakdown[string(act.Action)]++
	}

	flags := append([]string{}, res.Risk.Concentration.Flags...)
	flags = append(flags, res.Risk.SectorFlags...)

	report := &Report{
		Metadata: Metadata{
			RunID:    a.now().UTC().Format(time.RFC3339),
			Version:  reportVersion,
			DataHash: hashHoldings(res.Holdings),
		},
		Summary: Summary{
			TotalValue:    totalValue,
			HealthScore:   a.healthScore(res),
			HoldingsCount: len(res.Holdings),
			RiskProfile: RiskProfile{
				Label:      res.Risk.RiskProfile,
				Beta:       res.Risk.PortfolioBeta,
				DailyVaR95: res.Risk.DailyVaR95,
				CashPct:    math.Max(0, math.Round((100-equityWeight)*10)/10),
			},
			Advisory: AdvisorySummary{
				TotalActions:    len(res.Actions.Actions),
				CriticalActions: breakdown["EXIT"] + breakdown["REPLACE"],
				Breakdown:       breakdown,
			},
			CriticalFlags: flags,
		},
		Actions:      res.Actions.Actions,
		Intelligence: res.Events.Events,
	}

	for _, h := range res.Holdings {
		report.Holdings = append(report.Holdings, a.holdingBlock(h, res, verdictBySym[h.Symbol]))
	}
	return report
}

func (a *Assembler) holdingBlock(h types.Holding, res *pipeline.Result, v types.Verdict) HoldingBlock {
	hr := res.Risk.Get(h.Symbol)
	hv := res.Valuation.Get(h.Symbol)
	ht := res.Thesis.Get(h.Symbol)
	hd := res.Opportunity.Get(h.Symbol)

	block := HoldingBlock{
		Symbol: h.Symbol,
		Type:   string(h.Type),
		Meta: HoldingMeta{
			Sector:    a.cfg.SectorOf(h.Symbol, ""),
			WeightPct: math.Round(h.WeightPct*100) / 100,
			Price:     h.LastPrice,
			Value:     h.CurrentValue,
		},
		Advisory: HoldingAdvisory{
			Action:       v.Action,
			Rationale:    v.Reason,
			Urgency:      v.Urgency,
			Alternatives: hd.Candidates,
		},
	}
	if v.Action == "" {
		block.Advisory.Action = types.ActionHold
		block.Advisory.Urgency = types.UrgencyLow
	}

	if h.Type.IsEquityLike() {
		block.Analytics = HoldingAnalytics{
			ThesisStatus:    ht.Status,
			ValuationRating: hv.Status,
			MomentumScore:   hd.Momentum,
			RiskBeta:        hr.Beta,
			VaRContribution: hr.VaR95,
			DragScore:       hd.DragScore,
		}
	} else {
		block.Analytics = HoldingAnalytics{
			ThesisStatus:    "N/A",
			ValuationRating: "N/A",
			VaRContribution: hr.VaR95,
		}
	}
	return block
}

// healthScore computes the weight-averaged 0-100 portfolio quality score.
// Risk contributes a neutral 50 per holding: it is managed at portfolio
// level, not per position.
func (a *Assembler) healthScore(res *pipeline.Result) int {
	totalScore := 0.0
	totalWeight := 0.0

	for _, h := range res.Holdings {
		if !h.Type.IsEquityLike() {
			continue
		}
		w := h.WeightPct

		fund := 0.0
		switch res.Thesis.Get(h.Symbol).Status {
		case thesis.StatusIntact:
			fund = 100
		case thesis.StatusWeakening:
			fund = 50
		}
		eff := math.Max(0, 100-res.Opportunity.Get(h.Symbol).DragScore)
		val := math.Max(0, 100-res.Valuation.Get(h.Symbol).StressScore)

		holdingScore := fund*weightFundamental + eff*weightEfficiency + val*weightValuation + 50*weightRisk
		totalScore += holdingScore * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(totalScore / totalWeight))
}

// hashHoldings fingerprints the input table for run auditability.
func hashHoldings(rows []types.Holding) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "%s|%s|%.4f|%.4f|%.4f\n", r.Symbol, r.Type, r.Quantity, r.AvgPrice, r.CurrentValue)
	}
	return hex.EncodeToString(h.Sum(nil))
}
