// Package quote packs sentences into bounded-length candidate quotes and
// locates each quote on the page it came from.
package quote

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidBounds is returned when a Bounds cannot be packed against.
var ErrInvalidBounds = errors.New("invalid quote bounds")

// Bounds limits candidate length in characters, both ends inclusive.
type Bounds struct {
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`
}

// Validate requires 0 < MinLength <= MaxLength.
func (b Bounds) Validate() error {
	if b.MinLength <= 0 || b.MaxLength <= 0 {
		return fmt.Errorf("%w: lengths must be positive (min %d, max %d)", ErrInvalidBounds, b.MinLength, b.MaxLength)
	}
	if b.MinLength > b.MaxLength {
		return fmt.Errorf("%w: min %d exceeds max %d", ErrInvalidBounds, b.MinLength, b.MaxLength)
	}
	return nil
}

// Candidate is one or more consecutive sentences joined by single spaces.
type Candidate struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
}

func newCandidate(text string) Candidate {
	return Candidate{Text: text, Length: charCount(text)}
}

// Pack greedily absorbs sentences into an accumulator until the next one
// would push it past MaxLength, then flushes the accumulator if it reaches
// MinLength. The overflowing sentence starts the next accumulator even when
// it alone exceeds MaxLength; sentences are never split. A trailing
// accumulator shorter than MinLength is dropped. Each sentence is trimmed
// before it is measured, and blank sentences are skipped.
func Pack(sentences []string, b Bounds) ([]Candidate, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var out []Candidate
	var acc string
	accLen := 0

	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sLen := charCount(s)

		// Joined length without building the string first.
		candLen := sLen
		if accLen > 0 {
			candLen = accLen + 1 + sLen
		}

		if candLen <= b.MaxLength {
			if accLen > 0 {
				acc = acc + " " + s
			} else {
				acc = s
			}
			accLen = candLen
			continue
		}

		if accLen >= b.MinLength {
			out = append(out, newCandidate(acc))
		}
		acc, accLen = s, sLen
	}

	if accLen > 0 && accLen >= b.MinLength {
		out = append(out, newCandidate(acc))
	}

	return out, nil
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
