package holdings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kdeep17/portfolio-ai/internal/types"
)

// ErrParse wraps every holdings validation failure so callers can
// distinguish bad input from I/O problems.
var ErrParse = errors.New("holdings parse error")

// zerodhaColumns maps the broker export header to canonical field names.
var zerodhaColumns = map[string]string{
	"Instrument": "symbol",
	"Qty.":       "quantity",
	"Avg. cost":  "avg_price",
	"LTP":        "ltp",
	"Invested":   "invested",
	"Cur. val":   "current_value",
	"P&L":        "pnl",
}

// LoadCSV reads a Zerodha holdings export into the canonical holdings
// table, validates it and computes portfolio weights.
func LoadCSV(path string) ([]types.Holding, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse consumes holdings CSV content. Returns the table and the total
// portfolio value.
func Parse(r io.Reader) ([]types.Holding, float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: empty file", ErrParse)
	}

	colIdx := map[string]int{}
	for i, name := range header {
		if canonical, ok := zerodhaColumns[strings.TrimSpace(name)]; ok {
			colIdx[canonical] = i
		}
	}
	var missing []string
	for _, canonical := range zerodhaColumns {
		if _, ok := colIdx[canonical]; !ok {
			missing = append(missing, canonical)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: missing required columns: %s", ErrParse, strings.Join(missing, ", "))
	}

	var rows []types.Holding
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %v", ErrParse, line, err)
		}

		h, err := parseRow(rec, colIdx)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %v", ErrParse, line, err)
		}
		rows = append(rows, h)
	}

	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: no holdings rows", ErrParse)
	}

	total, err := RecomputeWeights(rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func parseRow(rec []string, colIdx map[string]int) (types.Holding, error) {
	get := func(name string) string {
		i := colIdx[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(name string) (float64, error) {
		raw := strings.ReplaceAll(get(name), ",", "")
		if raw == "" {
			return 0, nil
		}
		return strconv.ParseFloat(raw, 64)
	}

	symbol := strings.ToUpper(get("symbol"))
	if symbol == "" {
		return types.Holding{}, errors.New("empty symbol")
	}

	qty, err := num("quantity")
	if err != nil {
		return types.Holding{}, fmt.Errorf("bad quantity: %v", err)
	}
	if qty <= 0 {
		return types.Holding{}, fmt.Errorf("quantity must be > 0, got %v", qty)
	}

	avg, err := num("avg_price")
	if err != nil {
		return types.Holding{}, fmt.Errorf("bad avg_price: %v", err)
	}
	if avg <= 0 {
		return types.Holding{}, fmt.Errorf("avg_price must be > 0, got %v", avg)
	}

	ltp, err := num("ltp")
	if err != nil {
		return types.Holding{}, fmt.Errorf("bad ltp: %v", err)
	}
	invested, err := num("invested")
	if err != nil {
		return types.Holding{}, fmt.Errorf("bad invested: %v", err)
	}
	curVal, err := num("current_value")
	if err != nil {
		return types.Holding{}, fmt.Errorf("bad current_value: %v", err)
	}
	if curVal < 0 {
		return types.Holding{}, fmt.Errorf("current_value must be >= 0, got %v", curVal)
	}
	pnl, err := num("pnl")
	if err != nil {
		return types.Holding{}, fmt.Errorf("bad pnl: %v", err)
	}

	return types.Holding{
		Symbol:       symbol,
		Type:         ClassifyInstrument(symbol),
		Quantity:     qty,
		AvgPrice:     avg,
		LastPrice:    ltp,
		Invested:     invested,
		CurrentValue: curVal,
		PnL:          pnl,
	}, nil
}

// ClassifyInstrument infers the instrument class from the NSE symbol.
// Sovereign gold bonds carry an SGB prefix; trade-to-trade and surveillance
// series carry a -BE/-T1/-SM suffix.
func ClassifyInstrument(symbol string) types.InstrumentType {
	s := strings.ToUpper(symbol)
	if strings.HasPrefix(s, "SGB") || strings.HasSuffix(s, "-GB") || strings.HasPrefix(s, "GOLDBETF") {
		return types.InstrumentSGB
	}
	for _, suffix := range []string{"-BE", "-T1", "-SM", "-BZ", "-ST"} {
		if strings.HasSuffix(s, suffix) {
			return types.InstrumentRestricted
		}
	}
	return types.InstrumentEquity
}

// RecomputeWeights refreshes weight_pct in place from current values and
// returns the total portfolio value. Must run before the engines whenever
// the table changes: every severity calculation downstream keys off weight.
func RecomputeWeights(rows []types.Holding) (float64, error) {
	total := 0.0
	for _, h := range rows {
		total += h.CurrentValue
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: total portfolio value must be positive", ErrParse)
	}
	for i := range rows {
		rows[i].WeightPct = rows[i].CurrentValue / total * 100
	}
	return total, nil
}
