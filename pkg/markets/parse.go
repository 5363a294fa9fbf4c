package markets

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TotalsLine is a parsed total-points side such as "OVER_2_5".
type TotalsLine struct {
	Pick Side
	Line decimal.Decimal
}

// SpreadLine is a parsed handicap side such as "HOME_-0_5".
type SpreadLine struct {
	Pick Side
	Line decimal.Decimal
}

// ParseTotalsLine parses an encoded totals side into its direction and numeric
// line. The token glues a direction keyword to an underscore-joined number
// where the underscore inside the numeric portion stands in for the decimal
// point ("UNDER_2_5" -> UNDER, 2.5). The keyword is matched case-insensitively.
// Returns nil when the token is not a valid totals side.
func ParseTotalsLine(token string) *TotalsLine {
	parts := strings.Split(strings.TrimSpace(token), "_")
	if len(parts) < 2 {
		return nil
	}

	var pick Side
	switch strings.ToUpper(parts[0]) {
	case string(SideOver):
		pick = SideOver
	case string(SideUnder):
		pick = SideUnder
	default:
		return nil
	}

	line, ok := parseLineNumber(parts[1:], false)
	if !ok {
		return nil
	}
	return &TotalsLine{Pick: pick, Line: line}
}

// ParseSpreadLine parses an encoded handicap side into its team and signed
// line ("HOME_+1_5" -> HOME, 1.5; "AWAY_-0_5" -> AWAY, -0.5). Returns nil
// when the token is not a valid spread side.
func ParseSpreadLine(token string) *SpreadLine {
	parts := strings.Split(strings.TrimSpace(token), "_")
	if len(parts) < 2 {
		return nil
	}

	var pick Side
	switch strings.ToUpper(parts[0]) {
	case string(SideHome):
		pick = SideHome
	case string(SideAway):
		pick = SideAway
	default:
		return nil
	}

	line, ok := parseLineNumber(parts[1:], true)
	if !ok {
		return nil
	}
	return &SpreadLine{Pick: pick, Line: line}
}

// parseLineNumber joins the numeric fragments with a decimal point and strips
// every character that cannot appear in the line. A plus sign is dropped, a
// minus sign is kept only for signed (spread) lines.
func parseLineNumber(parts []string, signed bool) (decimal.Decimal, bool) {
	joined := strings.Join(parts, ".")

	var b strings.Builder
	for _, r := range joined {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && signed:
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
