package parser

import (
	"io"

	"github.com/dgallion1/quotegest/internal/document"
)

// TextParser handles plain text files. Form feeds separate pages, which
// matches what pdftotext writes; text without them is a single page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(src) == 0 {
		return document.New(trimExt(filename, ".txt"), nil), nil
	}
	return document.New(trimExt(filename, ".txt"), splitPages(string(src))), nil
}
