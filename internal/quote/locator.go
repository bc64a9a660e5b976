package quote

import (
	"strings"

	"github.com/dgallion1/quotegest/internal/document"
)

// Unknown is the page reported for a quote neither tier could place.
const Unknown = 0

// PrefixWords is how many leading words the fallback tier searches for.
const PrefixWords = 10

// MatchTier records which search tier placed a quote.
type MatchTier string

const (
	MatchNone   MatchTier = "none"
	MatchExact  MatchTier = "exact"
	MatchPrefix MatchTier = "prefix"
)

// Locate returns the page number holding q, or Unknown.
func Locate(q string, pages []document.Page) int {
	page, _ := LocateTier(q, pages)
	return page
}

// LocateTier searches pages in ascending order, first for q verbatim and
// then for its first PrefixWords words re-joined with single spaces. The
// first matching page wins in each tier.
func LocateTier(q string, pages []document.Page) (int, MatchTier) {
	prefix := wordPrefix(q, PrefixWords)
	if prefix == "" {
		return Unknown, MatchNone
	}

	for _, p := range pages {
		if strings.Contains(p.Text, q) {
			return p.Number, MatchExact
		}
	}

	for _, p := range pages {
		if strings.Contains(p.Text, prefix) {
			return p.Number, MatchPrefix
		}
	}

	return Unknown, MatchNone
}

func wordPrefix(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
