package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_StripsMarkup(t *testing.T) {
	input := `# Title

Intro text with *emphasis* and a [link](https://example.com).

## Section A

- first item
- second item
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", doc.Title)
	}
	if doc.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", doc.PageCount)
	}

	text := doc.Pages[0].Text
	for _, want := range []string{"Title", "Intro text with emphasis and a link.", "Section A", "first item", "second item"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected page text to contain %q, got %q", want, text)
		}
	}
	for _, unwanted := range []string{"#", "*", "](", "- first"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("expected markup %q to be stripped, got %q", unwanted, text)
		}
	}
}

func TestMarkdownParser_ParagraphNotDuplicated(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("Only once."), "once.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(doc.FullText, "Only once."); got != 1 {
		t.Errorf("expected paragraph once, found %d times in %q", got, doc.FullText)
	}
}

func TestMarkdownParser_CodeBlockKept(t *testing.T) {
	input := "Before.\n\n```\nx := 1\n```\n\nAfter."
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "code.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.FullText, "x := 1") {
		t.Errorf("expected code block content, got %q", doc.FullText)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Empty() {
		t.Errorf("expected empty document, got %q", doc.FullText)
	}
}

func TestHTMLParser_CollectsContentBlocks(t *testing.T) {
	input := `<!DOCTYPE html>
<html><head><title>Field Notes</title><style>p { color: red; }</style></head>
<body>
<nav>Home | About</nav>
<h1>Observations</h1>
<p>The river rose <b>two metres</b> overnight.</p>
<ul><li>Bridge closed.</li></ul>
<script>var x = 1;</script>
</body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Field Notes" {
		t.Errorf("expected title %q, got %q", "Field Notes", doc.Title)
	}
	text := doc.FullText
	for _, want := range []string{"Observations", "The river rose two metres overnight.", "Bridge closed."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	for _, unwanted := range []string{"Home | About", "var x", "color: red"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("expected %q to be skipped, got %q", unwanted, text)
		}
	}
}
