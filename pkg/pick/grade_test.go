package pick

import (
	"testing"

	"github.com/matchpick/matchpick/pkg/markets"
)

func pickFor(t *testing.T, market markets.Market, side string) *PrimaryPick {
	t.Helper()
	return &PrimaryPick{Market: market, Side: side, Probability: dec(t, "0.6"), Reason: "r"}
}

func TestGradeFullTime(t *testing.T) {
	tests := []struct {
		side       string
		home, away int
		want       Verdict
	}{
		{"HOME", 2, 1, VerdictHit},
		{"HOME", 1, 2, VerdictMiss},
		{"AWAY", 0, 1, VerdictHit},
		{"DRAW", 1, 1, VerdictHit},
		{"DRAW", 2, 1, VerdictMiss},
		{"home", 2, 0, VerdictHit}, // side compared case-insensitively
	}
	for _, tt := range tests {
		got := Grade(pickFor(t, markets.MarketFullTime1x2, tt.side), markets.NewScore(tt.home, tt.away), "FINAL")
		if got != tt.want {
			t.Errorf("Grade(1x2 %s, %d-%d) = %s, want %s", tt.side, tt.home, tt.away, got, tt.want)
		}
	}
}

func TestGradeTotalsPush(t *testing.T) {
	// Total 3 on a line of exactly 3 is a push, not a hit.
	got := Grade(pickFor(t, markets.MarketOverUnder, "OVER_3"), markets.NewScore(2, 1), "FINAL")
	if got != VerdictNeutral {
		t.Errorf("push graded %s, want neutral", got)
	}
}

func TestGradeTotals(t *testing.T) {
	score := markets.NewScore(3, 1) // total 4
	if got := Grade(pickFor(t, markets.MarketOverUnder, "OVER_2_5"), score, "FINAL"); got != VerdictHit {
		t.Errorf("OVER_2_5 with total 4 = %s, want hit", got)
	}
	if got := Grade(pickFor(t, markets.MarketOverUnder, "UNDER_2_5"), score, "FINAL"); got != VerdictMiss {
		t.Errorf("UNDER_2_5 with total 4 = %s, want miss", got)
	}
	if got := Grade(pickFor(t, markets.MarketOverUnder, "OVER_junk"), score, "FINAL"); got != VerdictNeutral {
		t.Errorf("unparseable line = %s, want neutral", got)
	}
}

func TestGradeHandicap(t *testing.T) {
	// home 1, away 2, line +1.5: adjusted home 2.5 beats away 2.
	if got := Grade(pickFor(t, markets.MarketHandicap, "HOME_+1_5"), markets.NewScore(1, 2), "FINAL"); got != VerdictHit {
		t.Errorf("HOME_+1_5 on 1-2 = %s, want hit", got)
	}
	// home 2, away 1, line -0.5: adjusted home 1.5 still beats away 1.
	if got := Grade(pickFor(t, markets.MarketHandicap, "HOME_-0_5"), markets.NewScore(2, 1), "FINAL"); got != VerdictHit {
		t.Errorf("HOME_-0_5 on 2-1 = %s, want hit", got)
	}
	// The line always adjusts the home score, whichever side was picked:
	// 1-1 with +0.5 makes adjusted home 1.5, so home covers and AWAY misses.
	if got := Grade(pickFor(t, markets.MarketHandicap, "AWAY_+0_5"), markets.NewScore(1, 1), "FINAL"); got != VerdictMiss {
		t.Errorf("AWAY_+0_5 on 1-1 = %s, want miss", got)
	}
	// away pick covering: 0-2 with -1.5 leaves adjusted home -1.5 below away 2.
	if got := Grade(pickFor(t, markets.MarketHandicap, "AWAY_-1_5"), markets.NewScore(0, 2), "FINAL"); got != VerdictHit {
		t.Errorf("AWAY_-1_5 on 0-2 = %s, want hit", got)
	}
	// exact tie after adjustment is a push.
	if got := Grade(pickFor(t, markets.MarketHandicap, "HOME_-1"), markets.NewScore(2, 1), "FINAL"); got != VerdictNeutral {
		t.Errorf("adjusted tie = %s, want neutral", got)
	}
}

func TestGradeNonFinalStatusSuppresses(t *testing.T) {
	p := pickFor(t, markets.MarketFullTime1x2, "HOME")
	score := markets.NewScore(3, 0)
	for _, status := range []string{"LIVE", "SCHEDULED", "", "IN_PROGRESS"} {
		if got := Grade(p, score, status); got != VerdictNeutral {
			t.Errorf("status %q graded %s, want neutral", status, got)
		}
	}
	if got := Grade(p, score, "final"); got != VerdictHit {
		t.Errorf("lower-case final graded %s, want hit", got)
	}
}

func TestGradeMissingInputs(t *testing.T) {
	if got := Grade(nil, markets.NewScore(1, 0), "FINAL"); got != VerdictNeutral {
		t.Errorf("nil pick = %s, want neutral", got)
	}
	p := pickFor(t, markets.MarketFullTime1x2, "HOME")
	if got := Grade(p, nil, "FINAL"); got != VerdictNeutral {
		t.Errorf("nil score = %s, want neutral", got)
	}
	one := 1
	if got := Grade(p, &markets.Score{Home: &one}, "FINAL"); got != VerdictNeutral {
		t.Errorf("half-known score = %s, want neutral", got)
	}
}

func TestGradeUnknownMarket(t *testing.T) {
	p := &PrimaryPick{Market: "CORNERS", Side: "OVER_9_5", Probability: dec(t, "0.6")}
	if got := Grade(p, markets.NewScore(2, 1), "FINAL"); got != VerdictNeutral {
		t.Errorf("unknown market = %s, want neutral", got)
	}
}

func TestVerdictString(t *testing.T) {
	if VerdictHit.String() != "hit" || VerdictMiss.String() != "miss" || VerdictNeutral.String() != "neutral" {
		t.Error("verdict strings out of sync with the wire format")
	}
}
