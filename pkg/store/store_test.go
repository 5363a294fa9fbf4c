package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
	"github.com/matchpick/matchpick/pkg/odds"
	"github.com/matchpick/matchpick/pkg/pick"
)

func testRecord(matchID int64, version int, hash string) *Record {
	return &Record{
		ID:       uuid.NewString(),
		MatchID:  matchID,
		Markets:  pick.AllMarkets(),
		OddsHash: hash,
		OddsSnapshot: odds.Snapshot{
			Moneyline: []odds.MoneylineEntry{{
				Side:   markets.SideHome,
				Price:  decimal.RequireFromString("1.8"),
				Latest: true,
			}},
		},
		Result: &pick.Result{
			PrimaryPick: &pick.PrimaryPick{
				Market:      markets.MarketFullTime1x2,
				Side:        "HOME",
				Probability: decimal.RequireFromString("0.6"),
				Reason:      "form",
			},
		},
		Version:   version,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// runStoreContract exercises the behavior every Store implementation must
// share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	if _, err := s.FindLatest(ctx, 1, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store FindLatest err = %v, want ErrNotFound", err)
	}
	if v, err := s.MaxVersion(ctx, 1); err != nil || v != 0 {
		t.Fatalf("empty store MaxVersion = %d, %v, want 0, nil", v, err)
	}

	if err := s.Insert(ctx, testRecord(1, 1, "hash-a")); err != nil {
		t.Fatalf("Insert v1: %v", err)
	}
	if err := s.Insert(ctx, testRecord(1, 2, "hash-b")); err != nil {
		t.Fatalf("Insert v2: %v", err)
	}
	if err := s.Insert(ctx, testRecord(2, 1, "hash-a")); err != nil {
		t.Fatalf("Insert other match: %v", err)
	}

	latest, err := s.FindLatest(ctx, 1, "")
	if err != nil {
		t.Fatalf("FindLatest any hash: %v", err)
	}
	if latest.Version != 2 || latest.OddsHash != "hash-b" {
		t.Errorf("latest = v%d %s, want v2 hash-b", latest.Version, latest.OddsHash)
	}
	if latest.Result == nil || latest.Result.PrimaryPick == nil || latest.Result.PrimaryPick.Side != "HOME" {
		t.Errorf("result did not round-trip: %+v", latest.Result)
	}
	if len(latest.OddsSnapshot.Moneyline) != 1 || !latest.OddsSnapshot.Moneyline[0].Price.Equal(decimal.RequireFromString("1.8")) {
		t.Errorf("snapshot did not round-trip: %+v", latest.OddsSnapshot)
	}

	byHash, err := s.FindLatest(ctx, 1, "hash-a")
	if err != nil {
		t.Fatalf("FindLatest by hash: %v", err)
	}
	if byHash.Version != 1 {
		t.Errorf("hash-a latest = v%d, want v1", byHash.Version)
	}

	if _, err := s.FindLatest(ctx, 1, "hash-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown hash err = %v, want ErrNotFound", err)
	}

	if v, err := s.MaxVersion(ctx, 1); err != nil || v != 2 {
		t.Errorf("MaxVersion(1) = %d, %v, want 2", v, err)
	}
	if v, err := s.MaxVersion(ctx, 2); err != nil || v != 1 {
		t.Errorf("MaxVersion(2) = %d, %v, want 1", v, err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	runStoreContract(t, s)
}

func TestBadgerStoreContract(t *testing.T) {
	s, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestBadgerStoreReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	if err := s.Insert(ctx, testRecord(5, 3, "h")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, err := s2.MaxVersion(ctx, 5); err != nil || v != 3 {
		t.Errorf("MaxVersion after reopen = %d, %v, want 3", v, err)
	}
}

func TestMemoryStoreReturnsClones(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Insert(ctx, testRecord(9, 1, "h")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.FindLatest(ctx, 9, "")
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	got.OddsHash = "mutated"
	got.Result.PrimaryPick = nil

	again, err := s.FindLatest(ctx, 9, "")
	if err != nil {
		t.Fatalf("FindLatest again: %v", err)
	}
	if again.OddsHash != "h" {
		t.Error("stored record mutated through a returned pointer")
	}
	if again.Result.PrimaryPick == nil {
		t.Error("stored result mutated through a returned pointer")
	}
}
