package sentiment

import (
	"regexp"
	"strings"
)

var (
	urlPattern  = regexp.MustCompile(`http\S+`)
	wordPattern = regexp.MustCompile(`\w+`)
)

// Preprocess normalizes raw forum text before scoring: lower-cases it,
// strips URL tokens, keeps only word-character runs joined by single spaces
// and drops isolated single-letter tokens (URL removal tends to leave those
// behind). Idempotent, so re-running it over persisted data is harmless.
func Preprocess(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")

	words := wordPattern.FindAllString(text, -1)
	kept := words[:0]
	for _, w := range words {
		if len(w) == 1 && w[0] >= 'a' && w[0] <= 'z' {
			continue
		}
		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}
