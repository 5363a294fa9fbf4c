package oracle

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/matchpick/matchpick/pkg/odds"
	"github.com/matchpick/matchpick/pkg/pick"
	"github.com/matchpick/matchpick/pkg/provider"
)

const (
	maxCommunityPosts = 5
	maxPostLength     = 400
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	repeatedSpace  = regexp.MustCompile(`\s+`)
	nonTextMarkup  = regexp.MustCompile(`[<>\[\]{}|\\]`)
)

// sanitizePost strips links, mentions and markup from community text and caps
// its length so one verbose post cannot dominate the prompt.
func sanitizePost(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = nonTextMarkup.ReplaceAllString(text, " ")
	text = repeatedSpace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxPostLength {
		text = string(runes[:maxPostLength])
	}
	return text
}

// relevantPosts ranks community posts by whether they mention either team,
// then by likes, and keeps the top few after sanitizing.
func relevantPosts(posts []provider.Post, home, away string) []string {
	type scored struct {
		text  string
		score int
		likes int
	}
	var candidates []scored
	for _, p := range posts {
		text := sanitizePost(strings.TrimSpace(p.Title + " " + p.Content))
		if text == "" {
			continue
		}
		score := 0
		if provider.MentionsTeam(text, home) {
			score++
		}
		if provider.MentionsTeam(text, away) {
			score++
		}
		candidates = append(candidates, scored{text: text, score: score, likes: p.Likes})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].likes > candidates[j].likes
	})
	if len(candidates) > maxCommunityPosts {
		candidates = candidates[:maxCommunityPosts]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.text)
	}
	return out
}

// BuildPrompt renders the analysis request for one match. Only the requested
// market sections appear in the output schema, which is how the caller scopes
// what the model estimates.
func BuildPrompt(mc *provider.MatchContext, snap *odds.Snapshot, req pick.RequestedMarkets) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a professional sports analyst. Analyze the following match and estimate outcome probabilities.\n\n")
	fmt.Fprintf(&b, "Match: %s vs %s\n", mc.Basic.HomeTeamName, mc.Basic.AwayTeamName)
	if mc.Basic.LeagueName != "" {
		fmt.Fprintf(&b, "League: %s\n", mc.Basic.LeagueName)
	}
	if mc.Basic.StartTime != "" {
		fmt.Fprintf(&b, "Kickoff: %s\n", mc.Basic.StartTime)
	}
	b.WriteString("\n")

	b.WriteString("Checklist before answering:\n")
	b.WriteString("1. Weigh recent form and head-to-head history more than reputation.\n")
	b.WriteString("2. Treat the bookmaker odds as the market consensus and justify any disagreement.\n")
	b.WriteString("3. Community chatter is weak evidence; use it only as a tiebreaker.\n")
	b.WriteString("4. Probabilities are decimals in [0, 1] and must be internally consistent.\n\n")

	if snap != nil {
		if data, err := json.Marshal(snap); err == nil {
			fmt.Fprintf(&b, "Current odds:\n%s\n\n", data)
		}
	}

	if data, err := json.Marshal(mc.Records); err == nil {
		fmt.Fprintf(&b, "Team records:\n%s\n\n", data)
	}

	if posts := relevantPosts(mc.Community, mc.Basic.HomeTeamName, mc.Basic.AwayTeamName); len(posts) > 0 {
		b.WriteString("Community posts:\n")
		for _, p := range posts {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	b.WriteString("Respond with JSON only, no prose, matching this schema:\n{\n")
	var fields []string
	if req.FullTime1x2 {
		fields = append(fields, `  "fullTime1x2": {"recommendedSide": "HOME|DRAW|AWAY", "probability": 0.55, "summary": "one sentence"}`)
	}
	if req.OverUnder {
		fields = append(fields, `  "overUnder": {"recommendedSide": "OVER_2_5", "probability": 0.6, "summary": "one sentence"}`)
	}
	if req.Handicap {
		fields = append(fields, `  "handicap": {"recommendedSide": "HOME_-0_5", "probability": 0.5, "summary": "one sentence"}`)
	}
	fields = append(fields, `  "primaryPick": {"market": "FULL_TIME_1X2|OVER_UNDER|HANDICAP", "side": "...", "probability": 0.6, "reason": "one sentence"}`)
	b.WriteString(strings.Join(fields, ",\n"))
	b.WriteString("\n}\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Line values use underscores as decimal points, e.g. OVER_2_5 means over 2.5 goals.\n")
	b.WriteString("- Handicap sides carry the sign, e.g. HOME_-0_5 or AWAY_+1_5.\n")
	b.WriteString("- Never choose DRAW as the primary pick.\n")
	b.WriteString("- The primary pick must be the single most confident selection across the requested markets.\n")

	return b.String()
}
