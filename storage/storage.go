package storage

import (
	"context"
	"time"

	"docsite/models"
)

// Database is the page index written by a build and read by list/search.
type Database interface {
	Initialize() error
	ReplacePages(ctx context.Context, pages []models.Page) error
	ListPages(ctx context.Context) ([]PageRecord, error)
	SearchPages(ctx context.Context, query string, limit int) ([]SearchResult, error)
	ClearAll(ctx context.Context) error
	Close() error
}

// PageRecord is one indexed page. Text is the page body without markup.
type PageRecord struct {
	Slug         string
	DocumentID   string
	Title        string
	WebViewLink  string
	ModifiedTime time.Time
	Text         string
	BuiltAt      time.Time
}

func (p PageRecord) FileName() string {
	return p.Slug + ".html"
}

type SearchResult struct {
	Page    PageRecord
	Snippet string
}
