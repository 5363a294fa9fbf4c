package pick

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
)

// Grade classifies a primary pick against a match score. It returns
// VerdictNeutral when there is nothing to grade: no pick, an unknown score, a
// non-final status, an unparseable line or an exact push/tie. Grade is pure -
// it is called once when a record is created and again on every cached read
// with the score known at that time, and identical inputs always give the
// identical verdict.
func Grade(p *PrimaryPick, score *markets.Score, status string) Verdict {
	if p == nil || !score.Known() || !markets.IsFinal(status) {
		return VerdictNeutral
	}

	side := strings.ToUpper(strings.TrimSpace(p.Side))
	market := markets.Market(strings.ToUpper(strings.TrimSpace(string(p.Market))))

	switch market {
	case markets.MarketFullTime1x2:
		if string(score.Winner()) == side {
			return VerdictHit
		}
		return VerdictMiss

	case markets.MarketOverUnder:
		parsed := markets.ParseTotalsLine(side)
		if parsed == nil {
			return VerdictNeutral
		}
		total := decimal.NewFromInt(int64(*score.Home + *score.Away))
		if total.Equal(parsed.Line) {
			return VerdictNeutral // push
		}
		wentOver := total.GreaterThan(parsed.Line)
		if (parsed.Pick == markets.SideOver) == wentOver {
			return VerdictHit
		}
		return VerdictMiss

	case markets.MarketHandicap:
		parsed := markets.ParseSpreadLine(side)
		if parsed == nil {
			return VerdictNeutral
		}
		adjustedHome := decimal.NewFromInt(int64(*score.Home)).Add(parsed.Line)
		away := decimal.NewFromInt(int64(*score.Away))
		if adjustedHome.Equal(away) {
			return VerdictNeutral
		}
		homeCovers := adjustedHome.GreaterThan(away)
		if (parsed.Pick == markets.SideHome) == homeCovers {
			return VerdictHit
		}
		return VerdictMiss
	}

	// Unknown market strings grade neutral rather than failing.
	return VerdictNeutral
}
