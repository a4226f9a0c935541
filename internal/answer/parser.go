package answer

import (
	"regexp"
	"strings"
)

// markerRE finds the suggestions marker anywhere in the text, with optional
// markdown emphasis around it.
var markerRE = regexp.MustCompile(`(?i)[*_]*\s*SUGEST(?:ÕES|OES)\s*:[*_]*`)

// bulletRE matches leading list markers: "-", "*", "•", "+", "1." or "1)".
var bulletRE = regexp.MustCompile(`^(?:[-*•+]+|\d+[.)])\s*`)

// Parse splits a generated completion into the answer text and its follow-up
// suggestions. Without a marker the whole trimmed text is the answer. A
// marker followed by nothing yields an empty, non-nil list.
func Parse(raw string) (string, []string) {
	loc := markerRE.FindStringIndex(raw)
	if loc == nil {
		return strings.TrimSpace(raw), []string{}
	}

	answer := strings.TrimSpace(raw[:loc[0]])
	suggestions := []string{}
	for _, line := range strings.Split(raw[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(bulletRE.ReplaceAllString(line, ""))
		if line != "" {
			suggestions = append(suggestions, line)
		}
	}
	return answer, suggestions
}
