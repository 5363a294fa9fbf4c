package pick

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matchpick/matchpick/pkg/markets"
	"github.com/matchpick/matchpick/pkg/odds"
)

// MinGoodPrice is the floor below which a quoted decimal price marks a pick as
// too short to be worth recommending; such candidates are discarded outright.
var MinGoodPrice = decimal.RequireFromString("1.4")

var one = decimal.NewFromInt(1)

// candidate is a market estimate under consideration for the primary pick.
// It exists only during selection and is never persisted.
type candidate struct {
	market      markets.Market
	side        string
	probability decimal.Decimal
	reason      string
	price       decimal.Decimal
	hasPrice    bool
	expected    decimal.Decimal
}

// SelectPrimaryPick recomputes the primary pick for a parsed oracle result
// against the current odds snapshot. Markets without a usable side are
// skipped; candidates whose quoted price falls under MinGoodPrice are
// discarded. When any candidate has a known price the winner is the one with
// the highest expected value (probability x price - 1), ties resolved toward
// the higher probability; with no price data at all the highest probability
// wins. When nothing survives the result is returned unchanged - the oracle's
// own pick, if it sent one, is preserved. The per-market estimates are never
// modified.
//
// Prices are looked up for the outright and totals markets only; handicap
// candidates compete without a price.
func SelectPrimaryPick(res *Result, snap *odds.Snapshot) *Result {
	if res == nil {
		return nil
	}
	out := *res

	var candidates []candidate
	consider := func(market markets.Market, est *Estimate) {
		if est == nil {
			return
		}
		side := strings.TrimSpace(est.RecommendedSide)
		if side == "" {
			return
		}
		reason := strings.TrimSpace(est.Summary)
		if reason == "" {
			reason = fmt.Sprintf("No summary was provided for the %s market.", market)
		}

		c := candidate{
			market:      market,
			side:        side,
			probability: est.Probability,
			reason:      reason,
		}

		priced := market == markets.MarketFullTime1x2 || market == markets.MarketOverUnder
		if priced && snap != nil {
			if price, ok := snap.FindPrice(market, side); ok {
				if price.LessThan(MinGoodPrice) {
					return
				}
				c.price = price
				c.hasPrice = true
			}
		}
		candidates = append(candidates, c)
	}

	consider(markets.MarketFullTime1x2, res.FullTime1x2)
	consider(markets.MarketOverUnder, res.OverUnder)
	consider(markets.MarketHandicap, res.Handicap)

	if len(candidates) == 0 {
		return &out
	}

	var priced []candidate
	for _, c := range candidates {
		if c.hasPrice && c.price.IsPositive() {
			c.expected = c.probability.Mul(c.price).Sub(one)
			priced = append(priced, c)
		}
	}

	var best candidate
	if len(priced) > 0 {
		best = priced[0]
		for _, c := range priced[1:] {
			switch {
			case c.expected.GreaterThan(best.expected):
				best = c
			case c.expected.Equal(best.expected) && c.probability.GreaterThan(best.probability):
				best = c
			}
		}
	} else {
		best = candidates[0]
		for _, c := range candidates[1:] {
			if c.probability.GreaterThan(best.probability) {
				best = c
			}
		}
	}

	out.PrimaryPick = &PrimaryPick{
		Market:      best.market,
		Side:        best.side,
		Probability: best.probability,
		Reason:      best.reason,
	}
	return &out
}
