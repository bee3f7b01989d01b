package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// HeadlineScraper collects recent headlines per symbol from Indian
// financial news sites. Output feeds the events engine; scoring happens
// there, not here.
type HeadlineScraper struct {
	sources []headlineSource
	timeout time.Duration
}

type headlineSource struct {
	name      string
	baseURL   string
	path      string // contains {symbol}
	selectors struct {
		container string
		title     string
		url       string
		published string
	}
	rateLimit time.Duration
}

func NewHeadlineScraper(timeout time.Duration) *HeadlineScraper {
	return &HeadlineScraper{sources: defaultHeadlineSources(), timeout: timeout}
}

func defaultHeadlineSources() []headlineSource {
	mc := headlineSource{
		name:      "MoneyControl",
		baseURL:   "https://www.moneycontrol.com",
		path:      "/news/tags/{symbol}.html",
		rateLimit: 2 * time.Second,
	}
	mc.selectors.container = "li.clearfix"
	mc.selectors.title = "h2 a, h3 a"
	mc.selectors.url = "h2 a, h3 a"
	mc.selectors.published = "span.ago"

	et := headlineSource{
		name:      "EconomicTimes",
		baseURL:   "https://economictimes.indiatimes.com",
		path:      "/topic/{symbol}",
		rateLimit: 2 * time.Second,
	}
	et.selectors.container = "div.story-box"
	et.selectors.title = "a"
	et.selectors.url = "a"
	et.selectors.published = "time"

	return []headlineSource{mc, et}
}

// Scrape fetches headlines for a symbol from all sources. Source failures
// are logged and skipped; the result may be empty, which is valid.
func (s *HeadlineScraper) Scrape(ctx context.Context, symbol string) ([]types.NewsItem, error) {
	var all []types.NewsItem
	for _, src := range s.sources {
		items, err := s.scrapeSource(ctx, src, symbol)
		if err != nil {
			logger.Warn(ctx, "Headline source failed", "source", src.name, "symbol", symbol, "error", err)
			continue
		}
		all = append(all, items...)
		time.Sleep(src.rateLimit)
	}
	return all, nil
}

func (s *HeadlineScraper) scrapeSource(ctx context.Context, src headlineSource, symbol string) ([]types.NewsItem, error) {
	var items []types.NewsItem

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(src.baseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML(src.selectors.container, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(src.selectors.title))
		if title == "" {
			return
		}
		link := e.ChildAttr(src.selectors.url, "href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = src.baseURL + link
		}
		items = append(items, types.NewsItem{
			Headline:  title,
			Published: parsePublished(strings.TrimSpace(e.ChildText(src.selectors.published))),
			Source:    src.name,
			URL:       link,
		})
	})

	target := src.baseURL + strings.ReplaceAll(src.path, "{symbol}", strings.ToLower(symbol))
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("visit %s: %w", target, err)
	}
	c.Wait()
	return items, nil
}

// parsePublished handles both absolute dates and the "N hours ago" strings
// news listings use. Unparseable stamps resolve to now so recency
// filtering stays permissive rather than dropping fresh stories.
func parsePublished(raw string) time.Time {
	now := time.Now().UTC()
	if raw == "" {
		return now
	}

	for _, layout := range []string{time.RFC3339, "Jan 02, 2006 03:04 PM", "02 Jan 2006", "January 2, 2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	lower := strings.ToLower(raw)
	fields := strings.Fields(lower)
	if len(fields) >= 2 && strings.Contains(lower, "ago") {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			switch {
			case strings.HasPrefix(fields[1], "min"):
				return now.Add(-time.Duration(n) * time.Minute)
			case strings.HasPrefix(fields[1], "hour"):
				return now.Add(-time.Duration(n) * time.Hour)
			case strings.HasPrefix(fields[1], "day"):
				return now.AddDate(0, 0, -n)
			case strings.HasPrefix(fields[1], "week"):
				return now.AddDate(0, 0, -7*n)
			case strings.HasPrefix(fields[1], "month"):
				return now.AddDate(0, -n, 0)
			}
		}
	}
	return now
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	return u.Host
}
