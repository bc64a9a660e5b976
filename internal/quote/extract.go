package quote

import (
	"github.com/dgallion1/quotegest/internal/document"
	"github.com/dgallion1/quotegest/internal/sentence"
)

// Located pairs a candidate with the page it was found on.
type Located struct {
	Candidate
	Page  int       `json:"page,omitempty"` // Unknown when unplaced
	Match MatchTier `json:"match"`
}

// Known reports whether the quote was placed on a page.
func (l Located) Known() bool {
	return l.Page != Unknown
}

// Extract segments the document's full text, packs the sentences and
// locates every candidate against the document's pages.
// An empty document yields no quotes and no error.
func Extract(doc *document.Document, seg sentence.Segmenter, b Bounds) ([]Located, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if doc.Empty() {
		return nil, nil
	}

	candidates, err := Pack(seg.Segment(doc.FullText), b)
	if err != nil {
		return nil, err
	}
	return LocateAll(candidates, doc.Pages), nil
}

// LocateAll places each candidate, keeping input order.
func LocateAll(candidates []Candidate, pages []document.Page) []Located {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]Located, len(candidates))
	for i, c := range candidates {
		page, tier := LocateTier(c.Text, pages)
		out[i] = Located{Candidate: c, Page: page, Match: tier}
	}
	return out
}

// CountKnown returns how many quotes have a page.
func CountKnown(quotes []Located) int {
	n := 0
	for _, q := range quotes {
		if q.Known() {
			n++
		}
	}
	return n
}
