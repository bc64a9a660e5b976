package sentence

import (
	"fmt"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Punkt detects sentence boundaries with the pre-trained English Punkt model,
// so abbreviations like "e.g." or "Dr." do not end a sentence.
type Punkt struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &Punkt{tokenizer: tok}, nil
}

func (p *Punkt) Segment(text string) []string {
	if text == "" {
		return nil
	}
	tokens := p.tokenizer.Tokenize(text)
	raw := make([]string, 0, len(tokens))
	for _, s := range tokens {
		raw = append(raw, s.Text)
	}
	return Clean(raw)
}
