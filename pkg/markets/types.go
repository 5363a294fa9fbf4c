// Package markets defines the wager-type vocabulary shared across the engine:
// markets, sides, encoded line tokens and match scores.
package markets

import "strings"

// Market is one of the three wager types the engine recommends on.
type Market string

const (
	MarketFullTime1x2 Market = "FULL_TIME_1X2"
	MarketOverUnder   Market = "OVER_UNDER"
	MarketHandicap    Market = "HANDICAP"
)

// Side is a selectable outcome within a market.
type Side string

const (
	SideHome  Side = "HOME"
	SideDraw  Side = "DRAW"
	SideAway  Side = "AWAY"
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Match status values reported by the upstream data source.
const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinal     = "FINAL"
)

// IsFinal reports whether a status string is the terminal state, ignoring case.
func IsFinal(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusFinal)
}

// Score is a match score. A nil side means that side is not yet known.
type Score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Known reports whether both sides of the score are present.
func (s *Score) Known() bool {
	return s != nil && s.Home != nil && s.Away != nil
}

// Winner returns the full-time result side. The score must be Known.
func (s *Score) Winner() Side {
	switch {
	case *s.Home > *s.Away:
		return SideHome
	case *s.Home < *s.Away:
		return SideAway
	}
	return SideDraw
}

// NewScore builds a known score from two integers.
func NewScore(home, away int) *Score {
	return &Score{Home: &home, Away: &away}
}
