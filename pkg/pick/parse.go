package pick

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
)

// ParseResultText extracts the oracle's JSON payload from free-form completion
// text. Markdown code fences are stripped and the first balanced {...} span is
// decoded; when no JSON can be recovered the original text is preserved under
// RawText so a later read can retry. Never returns nil and never fails.
func ParseResultText(text string) *Result {
	if strings.TrimSpace(text) == "" {
		return &Result{}
	}

	jsonStr := extractJSON(stripMarkdownFences(text))
	if jsonStr == "" {
		return &Result{RawText: text}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return &Result{RawText: text}
	}

	return &Result{
		FullTime1x2: estimateFromAny(raw["fullTime1x2"]),
		OverUnder:   estimateFromAny(raw["overUnder"]),
		Handicap:    estimateFromAny(raw["handicap"]),
		PrimaryPick: pickFromAny(raw["primaryPick"]),
	}
}

// stripMarkdownFences removes a ```json ... ``` (or plain ```) wrapper.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSON finds the first balanced JSON object in a string.
func extractJSON(s string) string {
	start := -1
	depth := 0
	for i, c := range s {
		switch c {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// estimateFromAny builds a typed estimate from a loosely-typed market object.
// A market without a usable numeric probability is dropped entirely: partial
// oracle output degrades to fewer candidates, never to an error.
func estimateFromAny(v any) *Estimate {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	prob, ok := toDecimal(m["probability"])
	if !ok {
		return nil
	}
	side, _ := m["recommendedSide"].(string)
	summary, _ := m["summary"].(string)
	return &Estimate{
		RecommendedSide: strings.TrimSpace(side),
		Probability:     prob,
		Summary:         summary,
	}
}

// pickFromAny keeps the oracle's own primary pick when it sent one; selection
// recomputes it whenever any candidate survives filtering.
func pickFromAny(v any) *PrimaryPick {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	market, _ := m["market"].(string)
	side, _ := m["side"].(string)
	if strings.TrimSpace(market) == "" || strings.TrimSpace(side) == "" {
		return nil
	}
	prob, _ := toDecimal(m["probability"])
	reason, _ := m["reason"].(string)
	return &PrimaryPick{
		Market:      markets.Market(strings.ToUpper(strings.TrimSpace(market))),
		Side:        strings.TrimSpace(side),
		Probability: prob,
		Reason:      reason,
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}
