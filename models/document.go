package models

import "time"

// Document is one Google Doc found in the source folder.
type Document struct {
	ID           string
	Name         string
	WebViewLink  string
	ModifiedTime time.Time
}

// Page is one generated HTML file.
type Page struct {
	Slug         string
	DocumentID   string
	Title        string
	WebViewLink  string
	ModifiedTime time.Time
	// Content is the body HTML stubbed into the template.
	Content string
	BuiltAt time.Time
}

func (p Page) FileName() string {
	return p.Slug + ".html"
}
