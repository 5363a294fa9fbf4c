// Package store persists analysis records. A record is immutable once
// written; refreshes insert a new version rather than updating in place, so
// the full history per match survives for later accuracy review.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matchpick/matchpick/pkg/odds"
	"github.com/matchpick/matchpick/pkg/pick"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("store: record not found")

// Record is one persisted analysis outcome for a match.
type Record struct {
	ID           string                `json:"id"`
	MatchID      int64                 `json:"matchId"`
	SportsType   string                `json:"sportsType,omitempty"`
	Markets      pick.RequestedMarkets `json:"markets"`
	OddsSnapshot odds.Snapshot         `json:"oddsSnapshot"`
	OddsHash     string                `json:"oddsHash"`
	Result       *pick.Result          `json:"result,omitempty"`
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// Store is the persistence contract used by the analysis service.
type Store interface {
	// FindLatest returns the newest record for a match. A non-empty oddsHash
	// restricts the search to records created under that exact snapshot; an
	// empty hash matches any. Returns ErrNotFound when nothing qualifies.
	FindLatest(ctx context.Context, matchID int64, oddsHash string) (*Record, error)

	// MaxVersion returns the highest version stored for a match across all
	// odds hashes, or 0 when the match has no records.
	MaxVersion(ctx context.Context, matchID int64) (int, error)

	// Insert persists a new record. The caller assigns ID and Version.
	Insert(ctx context.Context, rec *Record) error

	// Close releases underlying resources.
	Close() error
}
