// Package odds builds stable snapshots of the odds families relevant to
// recommendation and grading, and derives the cache key hash from them.
package odds

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
)

// Raw vendor keys recognized by the builder. Every other key in the raw odds
// blob (international books, raw vendor dumps) is ignored.
const (
	rawKeyWinLose   = "winLoseOdds"
	rawKeyUnderOver = "underOverOdds"
	rawKeyHandicap  = "handicapOdds"
)

// lineTolerance absorbs floating-point representation noise when matching a
// parsed side line against a quoted entry line.
var lineTolerance = decimal.RequireFromString("0.001")

// MoneylineEntry quotes a price for an outright result side.
type MoneylineEntry struct {
	Side      markets.Side    `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Latest    bool            `json:"latest,omitempty"`
	Available bool            `json:"available,omitempty"`
}

// TotalsEntry quotes a price for an over/under side at a numeric line.
type TotalsEntry struct {
	Side      markets.Side    `json:"side"`
	Line      decimal.Decimal `json:"line"`
	Price     decimal.Decimal `json:"price"`
	Latest    bool            `json:"latest,omitempty"`
	Available bool            `json:"available,omitempty"`
}

// SpreadEntry quotes a price for a handicap side at a signed line.
type SpreadEntry struct {
	Side      markets.Side    `json:"side"`
	Line      decimal.Decimal `json:"line"`
	Price     decimal.Decimal `json:"price"`
	Latest    bool            `json:"latest,omitempty"`
	Available bool            `json:"available,omitempty"`
}

// Snapshot is the immutable subset of a match's odds used for selection and
// cache invalidation. A family the vendor did not quote is nil; a family
// quoted with zero entries is normalized to nil as well, so vendor outages do
// not flip the hash between "absent" and "present but empty".
type Snapshot struct {
	Moneyline []MoneylineEntry `json:"moneyline,omitempty"`
	Totals    []TotalsEntry    `json:"totals,omitempty"`
	Spread    []SpreadEntry    `json:"spread,omitempty"`
}

// rawEntry is the vendor shape shared by the three recognized families.
// Prices and lines may arrive as numbers or numeric strings.
type rawEntry struct {
	Type          string          `json:"type"`
	OptionValue   decimal.Decimal `json:"optionValue"`
	Odds          decimal.Decimal `json:"odds"`
	LatestFlag    bool            `json:"latestFlag"`
	AvailableFlag bool            `json:"availableFlag"`
}

// BuildSnapshot extracts the three recognized odds families from a raw vendor
// blob. Entries with an unrecognized type and families that fail to decode
// are dropped rather than reported: partial vendor data degrades to a smaller
// snapshot, never to an error.
func BuildSnapshot(raw map[string]json.RawMessage) Snapshot {
	var snap Snapshot

	for _, e := range decodeFamily(raw[rawKeyWinLose]) {
		var side markets.Side
		switch strings.ToUpper(e.Type) {
		case "WIN":
			side = markets.SideHome
		case "DRAW":
			side = markets.SideDraw
		case "LOSS":
			side = markets.SideAway
		default:
			continue
		}
		snap.Moneyline = append(snap.Moneyline, MoneylineEntry{
			Side:      side,
			Price:     e.Odds,
			Latest:    e.LatestFlag,
			Available: e.AvailableFlag,
		})
	}

	for _, e := range decodeFamily(raw[rawKeyUnderOver]) {
		var side markets.Side
		switch strings.ToUpper(e.Type) {
		case "OVER":
			side = markets.SideOver
		case "UNDER":
			side = markets.SideUnder
		default:
			continue
		}
		snap.Totals = append(snap.Totals, TotalsEntry{
			Side:      side,
			Line:      e.OptionValue,
			Price:     e.Odds,
			Latest:    e.LatestFlag,
			Available: e.AvailableFlag,
		})
	}

	for _, e := range decodeFamily(raw[rawKeyHandicap]) {
		var side markets.Side
		switch strings.ToUpper(e.Type) {
		case "HOME":
			side = markets.SideHome
		case "AWAY":
			side = markets.SideAway
		default:
			continue
		}
		snap.Spread = append(snap.Spread, SpreadEntry{
			Side:      side,
			Line:      e.OptionValue,
			Price:     e.Odds,
			Latest:    e.LatestFlag,
			Available: e.AvailableFlag,
		})
	}

	return snap
}

func decodeFamily(raw json.RawMessage) []rawEntry {
	if len(raw) == 0 {
		return nil
	}
	var entries []rawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

// Hash returns the SHA-256 hex digest of the snapshot's canonical JSON form.
// Field order is fixed by struct declaration, so two snapshots with the same
// content hash identically no matter how the upstream blob ordered its keys.
func (s Snapshot) Hash() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Snapshot contains only marshalable fields; this branch is unreachable.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FindPrice looks up the quoted price for a market and encoded side token.
// Moneyline lookups require the entry to be flagged latest or available
// (vendors keep superseded rows around); totals and spread lookups match the
// numeric line embedded in the token within a small tolerance.
func (s Snapshot) FindPrice(market markets.Market, side string) (decimal.Decimal, bool) {
	switch market {
	case markets.MarketFullTime1x2:
		return s.findMoneylinePrice(side)
	case markets.MarketOverUnder:
		return s.findTotalsPrice(side)
	case markets.MarketHandicap:
		return s.findSpreadPrice(side)
	}
	return decimal.Decimal{}, false
}

func (s Snapshot) findMoneylinePrice(side string) (decimal.Decimal, bool) {
	var want markets.Side
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case string(markets.SideHome):
		want = markets.SideHome
	case string(markets.SideDraw):
		want = markets.SideDraw
	case string(markets.SideAway):
		want = markets.SideAway
	default:
		return decimal.Decimal{}, false
	}
	for _, e := range s.Moneyline {
		if e.Side == want && (e.Latest || e.Available) {
			return e.Price, true
		}
	}
	return decimal.Decimal{}, false
}

func (s Snapshot) findTotalsPrice(side string) (decimal.Decimal, bool) {
	parsed := markets.ParseTotalsLine(side)
	if parsed == nil {
		return decimal.Decimal{}, false
	}
	for _, e := range s.Totals {
		if e.Side != parsed.Pick {
			continue
		}
		if e.Line.Sub(parsed.Line).Abs().LessThan(lineTolerance) {
			return e.Price, true
		}
	}
	return decimal.Decimal{}, false
}

func (s Snapshot) findSpreadPrice(side string) (decimal.Decimal, bool) {
	parsed := markets.ParseSpreadLine(side)
	if parsed == nil {
		return decimal.Decimal{}, false
	}
	for _, e := range s.Spread {
		if e.Side != parsed.Pick {
			continue
		}
		if e.Line.Sub(parsed.Line).Abs().LessThan(lineTolerance) {
			return e.Price, true
		}
	}
	return decimal.Decimal{}, false
}
