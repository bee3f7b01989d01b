// Package thesis scores fundamental deterioration per holding from up to
// three annual statement periods. Each failed check carries a weight; the
// cumulative score maps to Intact / Weakening / Broken.
package thesis

import (
	"fmt"
	"math"

	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

const (
	StatusIntact        = "Intact"
	StatusWeakening     = "Weakening"
	StatusBroken        = "Broken"
	StatusNotApplicable = "Not Applicable"
	StatusInsufficient  = "Insufficient Data"
)

// HoldingThesis is the per-symbol fundamental verdict.
type HoldingThesis struct {
	Symbol       string   `json:"symbol"`
	Status       string   `json:"thesis_status"`
	PenaltyScore float64  `json:"penalty_score"`
	Drivers      []string `json:"drivers,omitempty"`
	IsFinancial  bool     `json:"is_financial"`
}

type Report struct {
	Holdings map[string]HoldingThesis `json:"holdings"`
}

// Get returns an insufficient-data record for unknown symbols.
func (r *Report) Get(symbol string) HoldingThesis {
	if r == nil {
		return HoldingThesis{Status: StatusInsufficient}
	}
	if t, ok := r.Holdings[symbol]; ok {
		return t
	}
	return HoldingThesis{Symbol: symbol, Status: StatusInsufficient}
}

type Engine struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Run(rows []types.Holding, snap *marketdata.Snapshot) *Report {
	report := &Report{Holdings: map[string]HoldingThesis{}}
	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			report.Holdings[h.Symbol] = HoldingThesis{Symbol: h.Symbol, Status: StatusNotApplicable}
			continue
		}
		report.Holdings[h.Symbol] = e.evaluate(h.Symbol, snap)
	}
	return report
}

func (e *Engine) evaluate(symbol string, snap *marketdata.Snapshot) HoldingThesis {
	stmts := snap.GetStatements(symbol)
	if stmts == nil || len(stmts.Revenue) < 2 {
		return HoldingThesis{Symbol: symbol, Status: StatusInsufficient}
	}

	info, _ := snap.Info(symbol)
	sector := e.cfg.SectorOf(symbol, info.Industry)
	financial := sector == "Financials"

	t := HoldingThesis{Symbol: symbol, IsFinancial: financial}
	ct := e.cfg.Thesis

	// Growth trajectory. Series are newest-first.
	if deteriorating(stmts.Revenue, ct.DropPct) {
		t.add(1.0, fmt.Sprintf("Revenue deteriorating (latest %s)", inr(stmts.Revenue[0])))
	}
	if deteriorating(stmts.NetIncome, ct.DropPct) {
		t.add(1.0, "Profit trajectory deteriorating")
	}

	// Margin compression, not meaningful for lenders.
	if !financial && len(stmts.Revenue) >= 2 && len(stmts.OperatingIncome) >= 2 {
		cur := margin(stmts.OperatingIncome[0], stmts.Revenue[0])
		prev := margin(stmts.OperatingIncome[1], stmts.Revenue[1])
		if prev > 0 && (prev-cur)/prev > ct.MarginCompression {
			t.add(1.0, fmt.Sprintf("Operating margin compressed %.1f%% -> %.1f%%", prev*100, cur*100))
		}
	}

	// Balance-sheet strain.
	if !financial {
		if cov, ok := interestCoverage(stmts); ok {
			switch {
			case cov < ct.CoverageCritical:
				t.add(2.0, fmt.Sprintf("Interest coverage critical at %.1fx", cov))
			case cov < ct.CoverageWarn:
				t.add(0.5, fmt.Sprintf("Interest coverage thin at %.1fx", cov))
			}
		}
		if de, ok := debtEquity(stmts); ok && de > ct.DebtEquityMax {
			t.add(1.0, fmt.Sprintf("Leverage elevated (D/E %.2f)", de))
		}
	} else {
		// For financials, eroding book value is the structural red flag.
		if len(stmts.Equity) >= 2 && stmts.Equity[0] < stmts.Equity[1] {
			t.add(2.0, "Book value declining")
		}
	}

	// Earnings quality: receivables outgrowing revenue signals channel stuffing.
	if !financial && len(stmts.Receivables) >= 2 && len(stmts.Revenue) >= 2 {
		rg := growth(stmts.Receivables)
		sg := growth(stmts.Revenue)
		if sg > 0 && rg > sg*ct.ReceivablesFactor {
			t.add(2.0, fmt.Sprintf("Receivables growing %.0f%% vs revenue %.0f%%", rg*100, sg*100))
		}
	}

	// Returns erosion over the full window.
	if roes := roeSeries(stmts); len(roes) >= 3 && roes[0] < roes[1] && roes[1] < roes[2] {
		t.add(2.0, fmt.Sprintf("ROE eroding over 3 years (%.1f%% now)", roes[0]*100))
	}

	// Dilution.
	if len(stmts.SharesIssued) >= 2 && stmts.SharesIssued[1] > 0 {
		d := (stmts.SharesIssued[0] - stmts.SharesIssued[1]) / stmts.SharesIssued[1]
		if d > ct.DilutionPct {
			t.add(0.5, fmt.Sprintf("Equity diluted %.1f%% year on year", d*100))
		}
	}

	switch {
	case t.PenaltyScore >= ct.BrokenScore:
		t.Status = StatusBroken
	case t.PenaltyScore >= ct.WeakeningScore:
		t.Status = StatusWeakening
	default:
		t.Status = StatusIntact
	}
	return t
}

func (t *HoldingThesis) add(weight float64, driver string) {
	t.PenaltyScore += weight
	t.Drivers = append(t.Drivers, driver)
}

// deteriorating reports a sharp latest-period drop or a monotonic decline
// across all available periods. Series are newest-first.
func deteriorating(series []float64, dropPct float64) bool {
	if len(series) < 2 {
		return false
	}
	if series[1] > 0 && (series[1]-series[0])/series[1] > dropPct {
		return true
	}
	if len(series) >= 3 {
		monotonic := true
		for i := 0; i < len(series)-1; i++ {
			if series[i] >= series[i+1] {
				monotonic = false
				break
			}
		}
		return monotonic
	}
	return false
}

func margin(op, revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return op / revenue
}

func interestCoverage(s *marketdata.Statements) (float64, bool) {
	if len(s.OperatingIncome) == 0 || len(s.InterestExpense) == 0 {
		return 0, false
	}
	if s.InterestExpense[0] <= 0 {
		return 0, false
	}
	return s.OperatingIncome[0] / s.InterestExpense[0], true
}

func debtEquity(s *marketdata.Statements) (float64, bool) {
	if len(s.TotalDebt) == 0 || len(s.Equity) == 0 || s.Equity[0] <= 0 {
		return 0, false
	}
	return s.TotalDebt[0] / s.Equity[0], true
}

func roeSeries(s *marketdata.Statements) []float64 {
	n := len(s.NetIncome)
	if len(s.Equity) < n {
		n = len(s.Equity)
	}
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if s.Equity[i] <= 0 {
			return nil
		}
		out = append(out, s.NetIncome[i]/s.Equity[i])
	}
	return out
}

// growth returns latest-over-prior change as a fraction.
func growth(series []float64) float64 {
	if len(series) < 2 || series[1] == 0 {
		return 0
	}
	return (series[0] - series[1]) / math.Abs(series[1])
}

// inr formats a crore-scale number compactly for driver strings.
func inr(v float64) string {
	switch {
	case math.Abs(v) >= 1e7:
		return fmt.Sprintf("%.0f Cr", v/1e7)
	case math.Abs(v) >= 1e5:
		return fmt.Sprintf("%.0f L", v/1e5)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
