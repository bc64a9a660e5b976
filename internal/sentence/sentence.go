// Package sentence splits raw text into an ordered sequence of sentences.
package sentence

import (
	"fmt"
	"strings"
)

// Segmenter splits text into sentences in source order.
type Segmenter interface {
	Segment(text string) []string
}

// Names accepted by ForName.
const (
	NamePunkt = "punkt"
	NameRules = "rules"
)

// ForName returns the segmenter registered under name.
func ForName(name string) (Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NamePunkt, "":
		return NewPunkt()
	case NameRules:
		return Rules{}, nil
	default:
		return nil, fmt.Errorf("unknown sentence segmenter: %q", name)
	}
}

// Clean trims each sentence and drops the ones left empty.
func Clean(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
