// Package compose assembles a draft text around quotes that have known pages.
package compose

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/dgallion1/quotegest/internal/quote"
)

// Draft is the input to every renderer in this package.
type Draft struct {
	Title    string
	Keywords []string
	Quotes   []quote.Located
	// ExcerptRunes cuts each quote to this many runes plus "..."; 0 keeps it whole.
	ExcerptRunes int
	// Analysis replaces the templated analysis section when set.
	Analysis string
}

const draftTemplate = `# {{ .Title }}

## Introduction

In this text we explore important aspects of the topic based on the relevant literature.
{{- if .Keywords }} Keywords: {{ join .Keywords ", " }}.{{ end }}

## Analysis

{{ if .Analysis -}}
{{ .Analysis }}
{{- else -}}
{{- $last := lastIndex .Quotes -}}
{{- range $i, $q := .Quotes -}}
{{- if lt $i $last -}}
As the literature states: "{{ excerpt $q.Text }}" (p. {{ $q.Page }}). This is an important aspect to consider.

{{ else -}}
We can conclude with the finding: "{{ excerpt $q.Text }}" (p. {{ $q.Page }}).
{{- end }}
{{- end }}
{{- end }}

## Conclusion

Based on the reviewed literature, we can conclude that the topic is an important field of research with several distinct aspects.
`

// Markdown renders the draft as a Markdown document.
func Markdown(d Draft) (string, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Untitled"
	}
	d.Title = title

	tmpl, err := template.New("draft").Funcs(template.FuncMap{
		"join":      strings.Join,
		"excerpt":   func(s string) string { return Excerpt(s, d.ExcerptRunes) },
		"lastIndex": func(qs []quote.Located) int { return len(qs) - 1 },
	}).Parse(draftTemplate)
	if err != nil {
		return "", fmt.Errorf("parse draft template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render draft: %w", err)
	}
	return buf.String(), nil
}

// Excerpt returns the first n runes of s followed by "...", or s unchanged
// when n <= 0 or s is already short enough.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var (
	unsafeFilenameRe = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
	underscoresRe    = regexp.MustCompile(`_+`)
)

// Filename turns a draft title into a download name like "my_topic.md".
func Filename(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameRe.ReplaceAllString(s, "")
	s = underscoresRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "draft"
	}
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s + ".md"
}
