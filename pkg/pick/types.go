// Package pick turns raw oracle output into a single, graded recommendation:
// it parses the oracle's text, evaluates per-market candidates against quoted
// prices, selects one primary pick and grades it once a result is known.
package pick

import (
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
)

// Estimate is the oracle's recommendation for one market.
type Estimate struct {
	RecommendedSide string          `json:"recommendedSide"`
	Probability     decimal.Decimal `json:"probability"`
	Summary         string          `json:"summary"`
}

// PrimaryPick is the single market+side chosen as the best recommendation.
type PrimaryPick struct {
	Market      markets.Market  `json:"market"`
	Side        string          `json:"side"`
	Probability decimal.Decimal `json:"probability"`
	Reason      string          `json:"reason"`
}

// Result is the parsed oracle output for one match. A market the oracle did
// not estimate (or estimated without a usable probability) is nil. A result
// without a PrimaryPick means the recommendation was withheld, not that
// something failed.
type Result struct {
	FullTime1x2 *Estimate    `json:"fullTime1x2,omitempty"`
	OverUnder   *Estimate    `json:"overUnder,omitempty"`
	Handicap    *Estimate    `json:"handicap,omitempty"`
	PrimaryPick *PrimaryPick `json:"primaryPick,omitempty"`

	// RawText preserves oracle output that could not be parsed as JSON so a
	// later cache read can retry normalization instead of trusting it.
	RawText string `json:"rawText,omitempty"`
}

// RequestedMarkets flags which wager types an analysis request covers.
type RequestedMarkets struct {
	FullTime1x2 bool `json:"fullTime1x2"`
	OverUnder   bool `json:"overUnder"`
	Handicap    bool `json:"handicap"`
}

// AllMarkets requests every supported wager type.
func AllMarkets() RequestedMarkets {
	return RequestedMarkets{FullTime1x2: true, OverUnder: true, Handicap: true}
}

// Verdict classifies a stored pick against the eventual result.
type Verdict int

const (
	VerdictNeutral Verdict = iota
	VerdictHit
	VerdictMiss
)

func (v Verdict) String() string {
	switch v {
	case VerdictHit:
		return "hit"
	case VerdictMiss:
		return "miss"
	default:
		return "neutral"
	}
}

// MarshalJSON encodes the verdict as its wire string.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}
