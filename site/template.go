package site

import (
	"html"
	"regexp"
	"strings"

	"docsite/models"
)

const (
	placeholderTitle     = "{{title}}"
	placeholderSiteTitle = "{{siteTitle}}"
	placeholderNav       = "{{nav}}"
	placeholderContent   = "{{content}}"
)

// RenderContext is the data stubbed into the template for one page.
type RenderContext struct {
	Title     string
	SiteTitle string
	Content   string
	Nav       string
}

// Render fills every {{title}}, {{siteTitle}} and {{nav}} in tpl, but only
// the first {{content}}. A second {{content}} stays in the output literally.
// Values go in as given; Builder passes titles HTML-escaped, so a document
// named "R&D" appears as R&amp;D.
func Render(tpl string, ctx RenderContext) string {
	out := strings.ReplaceAll(tpl, placeholderTitle, ctx.Title)
	out = strings.ReplaceAll(out, placeholderSiteTitle, ctx.SiteTitle)
	out = strings.ReplaceAll(out, placeholderNav, ctx.Nav)
	return strings.Replace(out, placeholderContent, ctx.Content, 1)
}

var bodyPattern = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)

// ExtractBody returns the inner HTML of the first <body> element, or raw
// unchanged when there is none.
func ExtractBody(raw string) string {
	m := bodyPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return m[1]
}

// link renders one nav anchor. name is HTML-escaped.
func link(slug, name string) string {
	return `<a href="./` + slug + `.html">` + html.EscapeString(name) + `</a>`
}

// Nav builds the navigation fragment: one link per document, in order.
// Document names are HTML-escaped.
func Nav(docs []*models.Document, slugs []string) string {
	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(link(slugs[i], doc.Name))
	}
	return sb.String()
}

// IndexContent is the body of index.html: a heading and a list of every page.
// The site title and document names are HTML-escaped.
func IndexContent(siteTitle string, docs []*models.Document, slugs []string) string {
	var sb strings.Builder
	sb.WriteString("<h2>" + html.EscapeString(siteTitle) + "</h2><ul>")
	for i, doc := range docs {
		sb.WriteString("<li>" + link(slugs[i], doc.Name) + "</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}
