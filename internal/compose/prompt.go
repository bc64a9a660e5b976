package compose

import (
	"fmt"
	"strings"
)

// BuildNarrationPrompt asks for the Analysis section of a draft, citing
// every quote verbatim with its page number.
func BuildNarrationPrompt(d Draft) string {
	var sb strings.Builder

	sb.WriteString("You are helping write a short academic text titled ")
	fmt.Fprintf(&sb, "%q.\n", d.Title)
	if len(d.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(d.Keywords, ", "))
	}

	sb.WriteString(`
Write the body of the "Analysis" section as 2-4 paragraphs of plain Markdown (no headings).
Weave in every quotation below. Reproduce each quotation verbatim inside double quotes and
follow it immediately with its page citation in the form (p. N). Do not invent quotations,
page numbers or sources.

Quotations:
`)
	for i, q := range d.Quotes {
		fmt.Fprintf(&sb, "%d. (p. %d) %q\n", i+1, q.Page, q.Text)
	}

	sb.WriteString("\nReturn only the section body.")
	return sb.String()
}
