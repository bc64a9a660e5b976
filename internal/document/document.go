package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonContiguousPages is returned when page numbers do not run 1..n.
var ErrNonContiguousPages = errors.New("page numbers are not contiguous from 1")

// Page is the text extracted from a single page, in original extraction formatting.
type Page struct {
	Number int    `json:"number"` // 1-based
	Text   string `json:"text"`
}

// Document is a paginated source with its pages in ascending order.
type Document struct {
	Title     string `json:"title"`
	PageCount int    `json:"page_count"`
	Pages     []Page `json:"pages"`
	FullText  string `json:"-"`
}

// New numbers pageTexts 1..n and joins them with single spaces into FullText.
func New(title string, pageTexts []string) *Document {
	pages := make([]Page, len(pageTexts))
	for i, text := range pageTexts {
		pages[i] = Page{Number: i + 1, Text: text}
	}
	return &Document{
		Title:     title,
		PageCount: len(pages),
		Pages:     pages,
		FullText:  strings.Join(pageTexts, " "),
	}
}

// Validate checks the page numbering invariant.
func (d *Document) Validate() error {
	if d.PageCount != len(d.Pages) {
		return fmt.Errorf("%w: page_count %d, have %d pages", ErrNonContiguousPages, d.PageCount, len(d.Pages))
	}
	for i, p := range d.Pages {
		if p.Number != i+1 {
			return fmt.Errorf("%w: position %d holds page %d", ErrNonContiguousPages, i+1, p.Number)
		}
	}
	return nil
}

// Empty reports whether there is nothing to quote.
func (d *Document) Empty() bool {
	return d == nil || len(d.Pages) == 0 || strings.TrimSpace(d.FullText) == ""
}
