package sentence

import (
	"strings"
	"unicode"
)

// Rules is a punctuation-only splitter: a sentence ends at '.', '!' or '?'
// followed by whitespace. It knows nothing about abbreviations.
type Rules struct{}

func (Rules) Segment(text string) []string {
	var raw []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if isTerminal(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			raw = append(raw, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		raw = append(raw, current.String())
	}

	return Clean(raw)
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
