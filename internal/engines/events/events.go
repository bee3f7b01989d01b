// Package events turns scraped headlines into scored portfolio events.
// Classification is layered: a noise filter drops market chatter, weighted
// phrase matches set the score, and single keywords only contribute when
// no phrase fired. Near-duplicate headlines are collapsed before display.
package events

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kdeep17/portfolio-ai/internal/engines/thesis"
	"github.com/kdeep17/portfolio-ai/internal/marketdata"
	"github.com/kdeep17/portfolio-ai/internal/store"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Event categories.
const (
	CategoryMaterialNegative  = "Material Negative"
	CategoryNegativeSentiment = "Negative Sentiment"
	CategoryMaterialPositive  = "Material Positive"
	CategoryPositiveSentiment = "Positive Sentiment"
	CategoryGovernanceRisk    = "Governance Risk"
	CategoryRegulatoryHit     = "Regulatory Hit"
)

const (
	materialNegativeCutoff = -8
	materialPositiveCutoff = 8
	keywordWeight          = 5
)

// criticalPhrases are checked first and stack additively.
var criticalPhrases = []struct {
	phrase string
	weight int
}{
	{"profit fall", -10}, {"profit drop", -10}, {"profit decline", -10}, {"net loss", -10},
	{"revenue miss", -8}, {"sales miss", -8}, {"margin pressure", -8}, {"margin contract", -8},
	{"downgrade", -8}, {"target cut", -5}, {"sell rating", -8},
	{"high cost", -5}, {"softer demand", -5}, {"weak demand", -5},
	{"regulatory action", -10}, {"show cause", -10}, {"ban", -10},

	{"record profit", 10}, {"profit jump", 10}, {"profit surge", 10}, {"net profit up", 10},
	{"revenue beat", 8}, {"sales beat", 8}, {"margin expand", 8},
	{"upgrade", 8}, {"target raise", 5}, {"buy rating", 8},
	{"order win", 8}, {"new contract", 8}, {"acquisition", 5}, {"bonus issue", 5},
}

// Single-word fallbacks, consulted only when no phrase scored.
var negativeKeywords = []string{
	"slump", "plunge", "tumble", "crash", "misses", "losses",
	"investigation", "fraud", "default", "bankruptcy",
}

var positiveKeywords = []string{
	"surge", "rally", "outperform", "bull", "dividend", "buyback",
}

// Negative events in these buckets get a sharper category label.
var governanceTerms = []string{"fraud", "investigation", "auditor resign", "default", "pledge"}
var regulatoryTerms = []string{"regulatory action", "show cause", "ban", "penalty", "probe", "sebi"}

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`market live`), regexp.MustCompile(`sensex`), regexp.MustCompile(`nifty`),
	regexp.MustCompile(`share price`), regexp.MustCompile(`buy or sell`), regexp.MustCompile(`target price`),
	regexp.MustCompile(`stock to watch`), regexp.MustCompile(`ahead of market`), regexp.MustCompile(`opening bell`),
	regexp.MustCompile(`buzzing stocks`), regexp.MustCompile(`technical check`), regexp.MustCompile(`chart check`),
}

// Event is one classified, scored headline.
type Event struct {
	Symbol    string `json:"symbol"`
	Headline  string `json:"headline"`
	Published string `json:"published"`
	Category  string `json:"impact"`
	Context   string `json:"confidence_effect"`
	Score     int    `json:"score"`
}

type Report struct {
	Events []Event `json:"events"`
}

// ForSymbol returns the retained events for one holding.
func (r *Report) ForSymbol(symbol string) []Event {
	if r == nil {
		return nil
	}
	var out []Event
	for _, ev := range r.Events {
		if ev.Symbol == symbol {
			out = append(out, ev)
		}
	}
	return out
}

// NetScore sums a holding's event scores, feeding the decision cascade.
func (r *Report) NetScore(symbol string) int {
	total := 0
	for _, ev := range r.ForSymbol(symbol) {
		total += ev.Score
	}
	return total
}

type Engine struct {
	cfg *store.Config
	now func() time.Time
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

func (e *Engine) Run(rows []types.Holding, snap *marketdata.Snapshot, thesisRep *thesis.Report) *Report {
	cutoff := e.now().UTC().AddDate(0, 0, -e.cfg.Events.RecencyDays)
	report := &Report{}

	for _, h := range rows {
		if !h.Type.IsEquityLike() {
			continue
		}
		items := snap.GetNews(h.Symbol)
		if len(items) == 0 {
			continue
		}
		status := thesisRep.Get(h.Symbol).Status

		var kept []Event
		for _, item := range items {
			if item.Published.IsZero() || item.Published.Before(cutoff) {
				continue
			}
			if strings.TrimSpace(item.Headline) == "" {
				continue
			}
			ev, ok := classify(item.Headline, status)
			if !ok {
				continue
			}
			if isDuplicate(item.Headline, kept, e.cfg.Events.DedupThreshold) {
				continue
			}
			ev.Symbol = h.Symbol
			ev.Published = item.Published.UTC().Format("2006-01-02")
			kept = append(kept, ev)
		}

		sort.SliceStable(kept, func(i, j int) bool {
			return abs(kept[i].Score) > abs(kept[j].Score)
		})
		if len(kept) > e.cfg.Events.MaxPerHolding {
			kept = kept[:e.cfg.Events.MaxPerHolding]
		}
		report.Events = append(report.Events, kept...)
	}
	return report
}

// classify scores one headline. Neutral headlines are dropped outright.
func classify(headline, thesisStatus string) (Event, bool) {
	text := strings.ToLower(headline)

	for _, pat := range noisePatterns {
		if pat.MatchString(text) {
			return Event{}, false
		}
	}

	score := 0
	var matches []string
	for _, cp := range criticalPhrases {
		if strings.Contains(text, cp.phrase) {
			score += cp.weight
			matches = append(matches, cp.phrase)
		}
	}

	if score == 0 {
		for _, w := range negativeKeywords {
			if strings.Contains(text, w) {
				score -= keywordWeight
				matches = append(matches, w)
			}
		}
		for _, w := range positiveKeywords {
			if strings.Contains(text, w) {
				score += keywordWeight
				matches = append(matches, w)
			}
		}
	}

	var category, context string
	switch {
	case score <= materialNegativeCutoff:
		category = CategoryMaterialNegative
		context = "Fundamental deterioration detected"
	case score < 0:
		category = CategoryNegativeSentiment
		context = "Short-term pressure"
	case score >= materialPositiveCutoff:
		category = CategoryMaterialPositive
		context = "Fundamental catalyst detected"
	case score > 0:
		category = CategoryPositiveSentiment
		context = "Momentum tailwind"
	default:
		return Event{}, false
	}

	// Sharper labels for structurally dangerous negatives.
	if score < 0 {
		if containsAny(text, governanceTerms) {
			category = CategoryGovernanceRisk
		} else if containsAny(text, regulatoryTerms) {
			category = CategoryRegulatoryHit
		}
	}

	if score < 0 && (thesisStatus == thesis.StatusWeakening || thesisStatus == thesis.StatusBroken) {
		context = fmt.Sprintf("CRITICAL: Validates downside (%s)", strings.Join(matches, ", "))
	}
	if score > 0 && thesisStatus == thesis.StatusBroken {
		context = "Possible contrarian signal against broken fundamentals"
	}

	return Event{Headline: headline, Category: category, Context: context, Score: score}, true
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// isDuplicate drops headlines too similar to ones already kept. Republished
// wire stories differ only in suffixes, so a ratio match catches them.
func isDuplicate(headline string, kept []Event, threshold float64) bool {
	for _, ev := range kept {
		if similarity(strings.ToLower(headline), strings.ToLower(ev.Headline)) >= threshold {
			return true
		}
	}
	return false
}

// similarity is 2*M/T over longest matching blocks, the classic sequence
// matcher ratio. Quadratic, fine at headline length.
func similarity(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1.0
	}
	m := matchingChars(a, b)
	return 2 * float64(m) / float64(len(a)+len(b))
}

func matchingChars(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

func longestBlock(a, b string) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > bestSize {
					bestSize = cur[j+1]
					bestA = i - bestSize + 1
					bestB = j - bestSize + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestA, bestB, bestSize
}

func abs(v int) int {
	return int(math.Abs(float64(v)))
}
