package store

import "strings"

// Static NSE lookup tables. All of these are plain config data: the
// engines receive them through Config, never read them as globals, and
// tests substitute their own fixtures.

func defaultSectorMap() map[string]string {
	return map[string]string{
		// Financials
		"HDFCBANK":   "Financials",
		"ICICIBANK":  "Financials",
		"KOTAKBANK":  "Financials",
		"AXISBANK":   "Financials",
		"SBIN":       "Financials",
		"BAJFINANCE": "Financials",
		"IDFCFIRSTB": "Financials",
		"INDUSINDBK": "Financials",

		// Information Technology
		"TCS":        "Information Technology",
		"INFY":       "Information Technology",
		"HCLTECH":    "Information Technology",
		"WIPRO":      "Information Technology",
		"TECHM":      "Information Technology",
		"LTIM":       "Information Technology",
		"PERSISTENT": "Information Technology",

		// Energy
		"RELIANCE": "Energy",
		"ONGC":     "Energy",
		"IOC":      "Energy",
		"BPCL":     "Energy",
		"NTPC":     "Energy",
		"TATAPOWER": "Energy",

		// Consumer
		"HINDUNILVR": "Consumer",
		"ITC":        "Consumer",
		"NESTLEIND":  "Consumer",
		"BRITANNIA":  "Consumer",
		"DABUR":      "Consumer",
		"TITAN":      "Consumer",

		// Automobiles
		"MARUTI":     "Automobiles",
		"TATAMOTORS": "Automobiles",
		"M&M":        "Automobiles",
		"BAJAJ-AUTO": "Automobiles",
		"EICHERMOT":  "Automobiles",

		// Healthcare
		"SUNPHARMA": "Healthcare",
		"CIPLA":     "Healthcare",
		"DRREDDY":   "Healthcare",
		"DIVISLAB":  "Healthcare",
		"APOLLOHOSP": "Healthcare",

		// Materials
		"TATASTEEL":  "Materials",
		"JSWSTEEL":   "Materials",
		"HINDALCO":   "Materials",
		"ULTRACEMCO": "Materials",
		"PIDILITIND": "Materials",
		"ASIANPAINT": "Materials",

		// Industrials
		"LT":         "Industrials",
		"SIEMENS":    "Industrials",
		"ABB":        "Industrials",
		"HAVELLS":    "Industrials",

		// Telecom
		"BHARTIARTL": "Telecom",
		"IDEA":       "Telecom",
	}
}

func defaultSectorCaptains() map[string][]string {
	return map[string][]string{
		"Financials":             {"HDFCBANK", "ICICIBANK", "KOTAKBANK"},
		"Information Technology": {"TCS", "INFY", "HCLTECH"},
		"Energy":                 {"RELIANCE", "NTPC", "ONGC"},
		"Consumer":               {"HINDUNILVR", "ITC", "NESTLEIND"},
		"Automobiles":            {"MARUTI", "M&M", "BAJAJ-AUTO"},
		"Healthcare":             {"SUNPHARMA", "CIPLA", "DRREDDY"},
		"Materials":              {"ULTRACEMCO", "JSWSTEEL", "ASIANPAINT"},
		"Industrials":            {"LT", "SIEMENS", "ABB"},
		"Telecom":                {"BHARTIARTL"},
	}
}

func defaultFallbackPE() map[string]float64 {
	return map[string]float64{
		"Financials":             18.0,
		"Information Technology": 25.0,
		"Energy":                 15.0,
		"Consumer":               40.0,
		"Automobiles":            22.0,
		"Healthcare":             28.0,
		"Materials":              20.0,
		"Industrials":            30.0,
		"Telecom":                20.0,
	}
}

// IndustryKeywords maps industry substrings to sectors for symbols absent
// from the static map. Checked in declaration order by SectorOf.
var industryKeywords = []struct {
	keyword string
	sector  string
}{
	{"bank", "Financials"},
	{"financ", "Financials"},
	{"insur", "Financials"},
	{"software", "Information Technology"},
	{"tech", "Information Technology"},
	{"it service", "Information Technology"},
	{"oil", "Energy"},
	{"gas", "Energy"},
	{"power", "Energy"},
	{"energy", "Energy"},
	{"pharma", "Healthcare"},
	{"drug", "Healthcare"},
	{"hospital", "Healthcare"},
	{"health", "Healthcare"},
	{"auto", "Automobiles"},
	{"motor", "Automobiles"},
	{"steel", "Materials"},
	{"cement", "Materials"},
	{"metal", "Materials"},
	{"chemical", "Materials"},
	{"mining", "Materials"},
	{"fmcg", "Consumer"},
	{"consumer", "Consumer"},
	{"food", "Consumer"},
	{"retail", "Consumer"},
	{"telecom", "Telecom"},
	{"communication", "Telecom"},
	{"construction", "Industrials"},
	{"engineering", "Industrials"},
	{"capital goods", "Industrials"},
	{"infra", "Industrials"},
}

// SectorOf resolves a symbol to its sector, preferring the static map and
// falling back to keyword classification of the industry label supplied by
// the market-data collaborator. Unresolvable symbols map to "Unknown".
func (c *Config) SectorOf(symbol, industry string) string {
	if s, ok := c.Sectors.Map[symbol]; ok {
		return s
	}
	li := strings.ToLower(industry)
	if li != "" {
		for _, kw := range industryKeywords {
			if strings.Contains(li, kw.keyword) {
				return kw.sector
			}
		}
	}
	return "Unknown"
}
