package fetch

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// PlainText flattens the body of doc. Each structural element contributes
// the text of its paragraph runs, or nothing for tables, section breaks and
// the like, and elements are joined with newlines.
func PlainText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}

	lines := make([]string, 0, len(doc.Body.Content))
	for _, element := range doc.Body.Content {
		lines = append(lines, paragraphText(element.Paragraph))
	}
	return strings.Join(lines, "\n")
}

func paragraphText(p *docs.Paragraph) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for _, elem := range p.Elements {
		if elem.TextRun != nil {
			sb.WriteString(elem.TextRun.Content)
		}
	}
	return sb.String()
}
