package pick

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
	"github.com/matchpick/matchpick/pkg/odds"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func estimate(t *testing.T, side, prob, summary string) *Estimate {
	t.Helper()
	return &Estimate{RecommendedSide: side, Probability: dec(t, prob), Summary: summary}
}

func snapshotWith(moneyline map[markets.Side]string, totals map[markets.Side]string) *odds.Snapshot {
	snap := &odds.Snapshot{}
	for side, price := range moneyline {
		snap.Moneyline = append(snap.Moneyline, odds.MoneylineEntry{
			Side:   side,
			Price:  decimal.RequireFromString(price),
			Latest: true,
		})
	}
	for side, price := range totals {
		snap.Totals = append(snap.Totals, odds.TotalsEntry{
			Side:   side,
			Line:   decimal.RequireFromString("2.5"),
			Price:  decimal.RequireFromString(price),
			Latest: true,
		})
	}
	return snap
}

func TestSelectPrefersHighestExpectedValue(t *testing.T) {
	res := &Result{
		FullTime1x2: estimate(t, "HOME", "0.5", "even match"),      // EV = 0.5*2.0 - 1 = 0
		OverUnder:   estimate(t, "OVER_2_5", "0.6", "goals likely"), // EV = 0.6*1.9 - 1 = 0.14
	}
	snap := snapshotWith(
		map[markets.Side]string{markets.SideHome: "2.0"},
		map[markets.Side]string{markets.SideOver: "1.9"},
	)

	got := SelectPrimaryPick(res, snap)
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Market != markets.MarketOverUnder {
		t.Errorf("primary market = %s, want OVER_UNDER", got.PrimaryPick.Market)
	}
	if got.PrimaryPick.Side != "OVER_2_5" {
		t.Errorf("primary side = %s, want OVER_2_5", got.PrimaryPick.Side)
	}
}

func TestSelectDiscardsShortPricedCandidates(t *testing.T) {
	// The trivial favourite has the highest probability but a price under the
	// floor; the totals pick must win instead.
	res := &Result{
		FullTime1x2: estimate(t, "HOME", "0.95", "heavy favourite"),
		OverUnder:   estimate(t, "UNDER_2_5", "0.5", "slow pace"),
	}
	snap := snapshotWith(
		map[markets.Side]string{markets.SideHome: "1.1"},
		map[markets.Side]string{markets.SideUnder: "2.0"},
	)

	got := SelectPrimaryPick(res, snap)
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Market != markets.MarketOverUnder {
		t.Errorf("primary market = %s, want OVER_UNDER", got.PrimaryPick.Market)
	}
}

func TestSelectPriceExactlyAtFloorSurvives(t *testing.T) {
	res := &Result{FullTime1x2: estimate(t, "HOME", "0.8", "solid")}
	snap := snapshotWith(map[markets.Side]string{markets.SideHome: "1.4"}, nil)

	got := SelectPrimaryPick(res, snap)
	if got.PrimaryPick == nil {
		t.Fatal("price 1.4 sits on the floor and should survive")
	}
}

func TestSelectEqualExpectedValueBreaksTowardProbability(t *testing.T) {
	// Both candidates have EV = 0.02.
	res := &Result{
		FullTime1x2: estimate(t, "HOME", "0.51", "slight edge"), // 0.51*2.0-1 = 0.02
		OverUnder:   estimate(t, "OVER_2_5", "0.6", "goals"),    // 0.6*1.7-1 = 0.02
	}
	snap := snapshotWith(
		map[markets.Side]string{markets.SideHome: "2.0"},
		map[markets.Side]string{markets.SideOver: "1.7"},
	)

	got := SelectPrimaryPick(res, snap)
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Market != markets.MarketOverUnder {
		t.Errorf("equal EV should resolve to the higher probability, got %s", got.PrimaryPick.Market)
	}
}

func TestSelectFallsBackToProbabilityWithoutPrices(t *testing.T) {
	res := &Result{
		FullTime1x2: estimate(t, "AWAY", "0.45", "away edge"),
		Handicap:    estimate(t, "HOME_+1_5", "0.7", "cover likely"),
	}

	got := SelectPrimaryPick(res, &odds.Snapshot{})
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Market != markets.MarketHandicap {
		t.Errorf("primary market = %s, want HANDICAP", got.PrimaryPick.Market)
	}
}

func TestSelectAllBelowFloorReturnsResultUnchanged(t *testing.T) {
	res := &Result{
		FullTime1x2: estimate(t, "HOME", "0.9", "favourite"),
		OverUnder:   estimate(t, "OVER_2_5", "0.85", "goals"),
	}
	snap := snapshotWith(
		map[markets.Side]string{markets.SideHome: "1.1"},
		map[markets.Side]string{markets.SideOver: "1.2"},
	)

	got := SelectPrimaryPick(res, snap)
	if got.PrimaryPick != nil {
		t.Errorf("all candidates under the floor, pick should be withheld: %+v", got.PrimaryPick)
	}
	if got.FullTime1x2 != res.FullTime1x2 || got.OverUnder != res.OverUnder {
		t.Error("per-market estimates must be preserved unchanged")
	}
}

func TestSelectKeepsOraclePickWhenNothingSurvives(t *testing.T) {
	oraclePick := &PrimaryPick{Market: markets.MarketHandicap, Side: "HOME_-0_5", Probability: dec(t, "0.6")}
	res := &Result{PrimaryPick: oraclePick}

	got := SelectPrimaryPick(res, &odds.Snapshot{})
	if got.PrimaryPick != oraclePick {
		t.Errorf("oracle's own pick should be kept when no candidate exists, got %+v", got.PrimaryPick)
	}
}

func TestSelectSkipsMarketsWithoutSide(t *testing.T) {
	res := &Result{
		FullTime1x2: estimate(t, "  ", "0.9", "no side"),
		OverUnder:   estimate(t, "OVER_2_5", "0.55", "goals"),
	}

	got := SelectPrimaryPick(res, nil)
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Market != markets.MarketOverUnder {
		t.Errorf("blank side should be skipped, got %s", got.PrimaryPick.Market)
	}
}

func TestSelectHandicapCompetesWithoutPrice(t *testing.T) {
	// Handicap never receives a price lookup, so with a priced rival it can
	// only win when no priced candidate survives.
	res := &Result{
		FullTime1x2: estimate(t, "HOME", "0.5", "even"),
		Handicap:    estimate(t, "HOME_-0_5", "0.99", "almost sure"),
	}
	snap := snapshotWith(map[markets.Side]string{markets.SideHome: "2.0"}, nil)

	got := SelectPrimaryPick(res, snap)
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Market != markets.MarketFullTime1x2 {
		t.Errorf("priced candidate should win over unpriced handicap, got %s", got.PrimaryPick.Market)
	}
}

func TestSelectNilResultPassesThrough(t *testing.T) {
	if got := SelectPrimaryPick(nil, &odds.Snapshot{}); got != nil {
		t.Errorf("nil result should pass through, got %+v", got)
	}
}

func TestSelectFillsMissingReason(t *testing.T) {
	res := &Result{OverUnder: estimate(t, "OVER_2_5", "0.6", "  ")}
	got := SelectPrimaryPick(res, nil)
	if got.PrimaryPick == nil {
		t.Fatal("expected a primary pick")
	}
	if got.PrimaryPick.Reason == "" {
		t.Error("reason should be filled with a placeholder")
	}
}
