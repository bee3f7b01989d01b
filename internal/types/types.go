package types

import "time"

// InstrumentType classifies a holding for engine routing. Only listed
// equities get the full analysis; everything else resolves to HOLD.
type InstrumentType string

const (
	InstrumentEquity     InstrumentType = "Equity"
	InstrumentRestricted InstrumentType = "Restricted-Equity"
	InstrumentSGB        InstrumentType = "SGB"
)

// IsEquityLike reports whether the instrument runs through the scoring
// engines. Restricted series (-BE/-T1/-SM) are still listed equities.
func (t InstrumentType) IsEquityLike() bool {
	return t == InstrumentEquity || t == InstrumentRestricted
}

// Holding is one row of the canonical holdings table.
type Holding struct {
	Symbol       string         `json:"symbol"`
	Type         InstrumentType `json:"instrument_type"`
	Quantity     float64        `json:"quantity"`
	AvgPrice     float64        `json:"avg_price"`
	LastPrice    float64        `json:"ltp"`
	Invested     float64        `json:"invested"`
	CurrentValue float64        `json:"current_value"`
	PnL          float64        `json:"pnl"`
	WeightPct    float64        `json:"weight_pct"`
}

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// NewsItem is one headline as delivered by the market-data collaborator.
type NewsItem struct {
	Headline  string    `json:"headline"`
	Published time.Time `json:"published"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// Action is the final per-holding recommendation.
type Action string

const (
	ActionHold    Action = "HOLD"
	ActionWatch   Action = "WATCH"
	ActionTrim    Action = "TRIM"
	ActionReplace Action = "REPLACE"
	ActionExit    Action = "EXIT"
)

// Severity orders actions from least to most disruptive.
func (a Action) Severity() int {
	switch a {
	case ActionWatch:
		return 1
	case ActionTrim:
		return 2
	case ActionReplace:
		return 3
	case ActionExit:
		return 4
	default:
		return 0
	}
}

// BaseScore is the ranking weight used by portfolio aggregation.
// HOLD and WATCH never enter the action list.
func (a Action) BaseScore() float64 {
	switch a {
	case ActionExit:
		return 100
	case ActionReplace:
		return 80
	case ActionTrim:
		return 60
	default:
		return 0
	}
}

type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

func (u Urgency) Multiplier() float64 {
	switch u {
	case UrgencyCritical:
		return 2.0
	case UrgencyHigh:
		return 1.5
	case UrgencyMedium:
		return 1.0
	default:
		return 0.5
	}
}

// Verdict is the decision engine's output for a single holding. Produced
// fresh on every run; never persisted across runs.
type Verdict struct {
	Symbol  string  `json:"symbol"`
	Action  Action  `json:"action"`
	Reason  string  `json:"reason"`
	Urgency Urgency `json:"urgency"`
	Rule    string  `json:"rule,omitempty"`
}

// RankedAction is a verdict scored for the portfolio action list.
type RankedAction struct {
	Verdict
	Score float64 `json:"score"`
}

// ActionList is the bounded, ranked set of non-HOLD, non-WATCH verdicts.
type ActionList struct {
	DoNothing bool           `json:"do_nothing"`
	Bias      string         `json:"net_action_bias"`
	Actions   []RankedAction `json:"actions"`
}
