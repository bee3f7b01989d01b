package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// LiveProvider assembles a snapshot from public sources: Yahoo Finance for
// quotes, price history and fundamentals, Screener.in for statement
// trajectories and moneycontrol for headlines. Each field is fetched
// independently so a single failing source leaves a gap, never an error.
type LiveProvider struct {
	httpClient *http.Client
	limiter    *RateLimiter
	headlines  *HeadlineScraper
}

func NewLiveProvider() *LiveProvider {
	return &LiveProvider{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewRateLimiter(5, 500*time.Millisecond),
		headlines:  NewHeadlineScraper(20 * time.Second),
	}
}

func (p *LiveProvider) Fetch(ctx context.Context, symbols []string) (*Snapshot, error) {
	snap := NewSnapshot()

	for _, sym := range symbols {
		if err := p.limiter.Wait(ctx); err != nil {
			return snap, err
		}

		info, err := p.fetchQuoteSummary(ctx, sym)
		if err != nil {
			logger.Warn(ctx, "Quote fetch failed, symbol left unenriched", "symbol", sym, "error", err)
			continue
		}
		snap.Fundamentals[sym] = info

		if hist, err := p.fetchHistory(ctx, sym); err != nil {
			logger.Warn(ctx, "History fetch failed", "symbol", sym, "error", err)
		} else {
			snap.History[sym] = hist
		}

		if stmts, err := p.fetchStatements(ctx, sym); err != nil {
			logger.Warn(ctx, "Statement fetch failed", "symbol", sym, "error", err)
		} else {
			snap.Statements[sym] = stmts
		}

		if news, err := p.headlines.Scrape(ctx, sym); err != nil {
			logger.Warn(ctx, "Headline fetch failed", "symbol", sym, "error", err)
		} else {
			snap.News[sym] = news
		}
	}

	logger.Info(ctx, "Live market data assembled",
		"symbols", len(symbols),
		"with_fundamentals", len(snap.Fundamentals),
		"with_history", len(snap.History),
		"with_statements", len(snap.Statements),
	)
	return snap, nil
}

func yahooTicker(symbol string) string {
	if strings.HasPrefix(symbol, "^") || strings.HasSuffix(symbol, ".NS") {
		return symbol
	}
	return symbol + ".NS"
}

func (p *LiveProvider) fetchQuoteSummary(ctx context.Context, symbol string) (Fundamentals, error) {
	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics,financialData,assetProfile",
		yahooTicker(symbol))

	body, err := p.get(ctx, url)
	if err != nil {
		return Fundamentals{}, err
	}

	var resp struct {
		QuoteSummary struct {
			Result []struct {
				SummaryDetail struct {
					TrailingPE rawValue `json:"trailingPE"`
					MarketCap  rawValue `json:"marketCap"`
				} `json:"summaryDetail"`
				DefaultKeyStatistics struct {
					PriceToBook rawValue `json:"priceToBook"`
					PegRatio    rawValue `json:"pegRatio"`
				} `json:"defaultKeyStatistics"`
				FinancialData struct {
					ReturnOnEquity rawValue `json:"returnOnEquity"`
				} `json:"financialData"`
				AssetProfile struct {
					Sector   string `json:"sector"`
					Industry string `json:"industry"`
				} `json:"assetProfile"`
			} `json:"result"`
		} `json:"quoteSummary"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Fundamentals{}, err
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return Fundamentals{}, fmt.Errorf("empty quoteSummary for %s", symbol)
	}

	r := resp.QuoteSummary.Result[0]
	return Fundamentals{
		TrailingPE:     r.SummaryDetail.TrailingPE.ptr(),
		MarketCap:      r.SummaryDetail.MarketCap.ptr(),
		PriceToBook:    r.DefaultKeyStatistics.PriceToBook.ptr(),
		PEGRatio:       r.DefaultKeyStatistics.PegRatio.ptr(),
		ReturnOnEquity: r.FinancialData.ReturnOnEquity.ptr(),
		Sector:         r.AssetProfile.Sector,
		Industry:       r.AssetProfile.Industry,
	}, nil
}

func (p *LiveProvider) fetchHistory(ctx context.Context, symbol string) ([]types.Candle, error) {
	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?range=1y&interval=1d",
		yahooTicker(symbol))

	body, err := p.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Open   []float64 `json:"open"`
						High   []float64 `json:"high"`
						Low    []float64 `json:"low"`
						Close  []float64 `json:"close"`
						Volume []float64 `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart for %s", symbol)
	}

	r := resp.Chart.Result[0]
	q := r.Indicators.Quote[0]
	candles := make([]types.Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == 0 {
			continue
		}
		candles = append(candles, types.Candle{
			Ts:    ts,
			Open:  at(q.Open, i),
			High:  at(q.High, i),
			Low:   at(q.Low, i),
			Close: q.Close[i],
			Vol:   at(q.Volume, i),
		})
	}
	return candles, nil
}

// fetchStatements scrapes the annual P&L and balance-sheet tables from
// Screener.in. Rows are newest-last in the HTML; we keep the trailing
// three periods newest-first to match the engines' convention.
func (p *LiveProvider) fetchStatements(ctx context.Context, symbol string) (*Statements, error) {
	url := fmt.Sprintf("https://www.screener.in/company/%s/", strings.ToUpper(symbol))
	body, err := p.get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	rows := map[string][]float64{}
	doc.Find("section#profit-loss table tr, section#balance-sheet table tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.TrimSpace(tr.Find("td.text").First().Text())
		if label == "" {
			return
		}
		var vals []float64
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i == 0 {
				return
			}
			raw := strings.ReplaceAll(strings.TrimSpace(td.Text()), ",", "")
			raw = strings.TrimSuffix(raw, "%")
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				vals = append(vals, v)
			}
		})
		if len(vals) > 0 {
			rows[strings.ToLower(label)] = newestFirst(vals, 3)
		}
	})

	if len(rows) == 0 {
		return nil, fmt.Errorf("no statement tables for %s", symbol)
	}

	stmts := &Statements{
		Revenue:         firstRow(rows, "sales", "revenue"),
		NetIncome:       firstRow(rows, "net profit", "profit after tax"),
		OperatingIncome: firstRow(rows, "operating profit", "ebit"),
		InterestExpense: firstRow(rows, "interest"),
		TotalDebt:       firstRow(rows, "borrowings", "total debt"),
		Equity:          firstRow(rows, "equity capital", "shareholders equity", "reserves"),
		Receivables:     firstRow(rows, "trade receivables", "debtors"),
		SharesIssued:    firstRow(rows, "no. of equity shares", "shares"),
	}
	return stmts, nil
}

func (p *LiveProvider) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// rawValue decodes Yahoo's {"raw": n, "fmt": "..."} wrappers.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) ptr() *float64 {
	if v.Raw == nil {
		return nil
	}
	raw := *v.Raw
	return &raw
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

// newestFirst keeps the trailing n values of an oldest-first row and
// reverses them so index 0 is the latest fiscal period.
func newestFirst(vals []float64, n int) []float64 {
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[len(vals)-1-i] = v
	}
	return out
}

func firstRow(rows map[string][]float64, labels ...string) []float64 {
	for _, l := range labels {
		for k, v := range rows {
			if strings.Contains(k, l) {
				return v
			}
		}
	}
	return nil
}
