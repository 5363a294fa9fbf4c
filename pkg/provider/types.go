// Package provider fetches match context from the upstream sports-data and
// community-board APIs. The engine treats these as opaque collaborators: raw
// odds and record rows pass through untouched, and the odds hash downstream
// is what detects legitimate changes between calls.
package provider

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/matchpick/matchpick/pkg/markets"
)

// Basic carries the fixture header fields used in prompts and event payloads.
type Basic struct {
	LeagueName   string `json:"leagueName"`
	StartTime    string `json:"startTime"`
	HomeTeamName string `json:"homeTeamName"`
	AwayTeamName string `json:"awayTeamName"`
}

// Post is one community board post attached to a match.
type Post struct {
	PostID    int64  `json:"post_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Likes     int    `json:"likes"`
	CreatedAt string `json:"created_at"`
}

// Records holds head-to-head and recent-form rows as raw vendor JSON. The
// engine forwards them to the oracle without interpreting them.
type Records struct {
	HeadToHead []json.RawMessage `json:"headToHead"`
	HomeRecent []json.RawMessage `json:"homeRecent"`
	AwayRecent []json.RawMessage `json:"awayRecent"`
}

// MatchContext aggregates everything the engine needs about one match at a
// point in time.
type MatchContext struct {
	MatchID    int64                      `json:"matchId"`
	SportsType string                     `json:"sportsType,omitempty"`
	Basic      Basic                      `json:"basic"`
	Records    Records                    `json:"records"`
	OddsRaw    map[string]json.RawMessage `json:"odds"`
	Community  []Post                     `json:"community"`
	Score      *markets.Score             `json:"score,omitempty"`
	Status     string                     `json:"status,omitempty"`
	Result     string                     `json:"result,omitempty"`
}

// Overrides pins score/status values a caller already holds (e.g. from a live
// page) onto the fetched context.
type Overrides struct {
	ScoreHome *int
	ScoreAway *int
	Status    string
	Result    string
}

// Score builds a partial score from the override fields, or nil when neither
// side was supplied.
func (o *Overrides) Score() *markets.Score {
	if o == nil || (o.ScoreHome == nil && o.ScoreAway == nil) {
		return nil
	}
	return &markets.Score{Home: o.ScoreHome, Away: o.ScoreAway}
}

// MatchSummary is one row of the popular-match list used by the sweep.
type MatchSummary struct {
	MatchID      int64     `json:"matchId"`
	SportsType   string    `json:"sportsType"`
	LeagueName   string    `json:"leagueName"`
	StartTime    time.Time `json:"startTime"`
	HomeTeamName string    `json:"homeTeamName"`
	AwayTeamName string    `json:"awayTeamName"`
	Status       string    `json:"status,omitempty"`
}

// ContextProvider is the upstream collaborator consumed by the analysis
// service and the sweep.
type ContextProvider interface {
	// MatchContext fetches the full aggregate for one match. It is idempotent
	// for a fixed match and overrides at a fixed point in time; odds may
	// legitimately differ between calls.
	MatchContext(ctx context.Context, matchID int64, sportsType string, ov *Overrides) (*MatchContext, error)

	// PopularMatches lists the candidate matches for a date (YYYY-MM-DD).
	// The tomorrow flag selects the next-day pre-compute feed.
	PopularMatches(ctx context.Context, date string, tomorrow bool) ([]MatchSummary, error)
}
