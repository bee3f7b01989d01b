package marketdata

import (
	"context"

	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Fundamentals carries the per-symbol metadata the engines consume.
// Pointer fields model absence: a nil metric is an expected state, not an
// error, and every consumer defines its own fallback.
type Fundamentals struct {
	TrailingPE     *float64 `json:"trailing_pe,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	PEGRatio       *float64 `json:"peg_ratio,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	Sector         string   `json:"sector,omitempty"`
	Industry       string   `json:"industry,omitempty"`
}

// Statements holds trailing financial-statement line items, newest period
// first, up to three fiscal periods. Any slice may be empty or short.
type Statements struct {
	Revenue         []float64 `json:"revenue,omitempty"`
	NetIncome       []float64 `json:"net_income,omitempty"`
	OperatingIncome []float64 `json:"operating_income,omitempty"`
	InterestExpense []float64 `json:"interest_expense,omitempty"`
	TotalDebt       []float64 `json:"total_debt,omitempty"`
	Equity          []float64 `json:"equity,omitempty"`
	Receivables     []float64 `json:"receivables,omitempty"`
	SharesIssued    []float64 `json:"shares_issued,omitempty"`
}

// Snapshot is the central repository for all external data, populated once
// before the pipeline runs. All lookups are null-safe.
type Snapshot struct {
	Fundamentals map[string]Fundamentals     `json:"fundamentals"`
	Statements   map[string]*Statements      `json:"statements"`
	History      map[string][]types.Candle   `json:"history"`
	News         map[string][]types.NewsItem `json:"news"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Fundamentals: map[string]Fundamentals{},
		Statements:   map[string]*Statements{},
		History:      map[string][]types.Candle{},
		News:         map[string][]types.NewsItem{},
	}
}

// Info returns the fundamentals for a symbol; ok is false when the symbol
// was never fetched.
func (s *Snapshot) Info(symbol string) (Fundamentals, bool) {
	f, ok := s.Fundamentals[symbol]
	return f, ok
}

// GetStatements returns nil when statement data is missing.
func (s *Snapshot) GetStatements(symbol string) *Statements {
	return s.Statements[symbol]
}

// Closes returns the daily closing series for a symbol, oldest first.
// Missing history yields an empty slice.
func (s *Snapshot) Closes(symbol string) []float64 {
	candles := s.History[symbol]
	if len(candles) == 0 {
		return nil
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// GetNews returns the recent headlines for a symbol; missing news is an
// empty list.
func (s *Snapshot) GetNews(symbol string) []types.NewsItem {
	return s.News[symbol]
}

// Provider supplies a fully-populated snapshot for a symbol universe.
// Fetching happens entirely before the decision core begins; the core
// itself never performs I/O.
type Provider interface {
	Fetch(ctx context.Context, symbols []string) (*Snapshot, error)
}
