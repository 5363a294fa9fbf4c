package provider

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var teamNameStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTeamName lowers a team name and strips diacritics so that fuzzy
// membership checks ("atletico" in "Atlético Madrid") work on vendor data
// that is inconsistent about accents.
func NormalizeTeamName(name string) string {
	stripped, _, err := transform.String(teamNameStripper, name)
	if err != nil {
		stripped = name
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}

// MentionsTeam reports whether text refers to the given team name after both
// sides are normalized. Short names (under three runes) never match to avoid
// false positives on abbreviations.
func MentionsTeam(text, team string) bool {
	t := NormalizeTeamName(team)
	if len([]rune(t)) < 3 {
		return false
	}
	return strings.Contains(NormalizeTeamName(text), t)
}
