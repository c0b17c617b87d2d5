package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"docsite/models"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

const snippetLength = 150

var _ Database = (*SQLiteDB)(nil)

type SQLiteDB struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteDB(dbPath string) *SQLiteDB {
	return &SQLiteDB{
		dbPath: dbPath,
	}
}

func (s *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	s.db = db
	return nil
}

// ReplacePages swaps the whole index for pages in one transaction.
func (s *SQLiteDB) ReplacePages(ctx context.Context, pages []models.Page) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("failed to clear pages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (slug, position, document_id, title, web_view_link, modified_time, text, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range pages {
		_, err := stmt.ExecContext(ctx,
			p.Slug,
			i,
			p.DocumentID,
			p.Title,
			p.WebViewLink,
			formatTime(p.ModifiedTime),
			ExtractText(p.Content),
			formatTime(p.BuiltAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pages: %w", err)
	}
	return nil
}

// ListPages returns the indexed pages in navigation order.
func (s *SQLiteDB) ListPages(ctx context.Context) ([]PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, document_id, title, web_view_link, modified_time, text, built_at
		FROM pages
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// SearchPages matches pages whose title or text contains every term of
// query, ignoring ASCII case.
func (s *SQLiteDB) SearchPages(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var (
		where []string
		args  []any
	)
	for _, term := range terms {
		pattern := "%" + escapeLike(term) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR text LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, document_id, title, web_view_link, modified_time, text, built_at
		FROM pages
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY position
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search pages: %w", err)
	}
	defer rows.Close()

	pages, err := scanPages(rows)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(pages))
	for _, p := range pages {
		results = append(results, SearchResult{
			Page:    p,
			Snippet: generateSnippet(p.Text, query, snippetLength),
		})
	}
	return results, nil
}

func (s *SQLiteDB) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("failed to clear pages: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanPages(rows *sql.Rows) ([]PageRecord, error) {
	var pages []PageRecord
	for rows.Next() {
		var (
			p                 PageRecord
			modified, builtAt string
		)
		if err := rows.Scan(&p.Slug, &p.DocumentID, &p.Title, &p.WebViewLink, &modified, &p.Text, &builtAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.ModifiedTime = parseTime(modified)
		p.BuiltAt = parseTime(builtAt)
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}
	return pages, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func generateSnippet(content string, query string, maxLength int) string {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return truncate(content, maxLength)
	}

	firstTerm := queryTerms[0]
	contentLower := strings.ToLower(content)
	index := strings.Index(contentLower, firstTerm)
	// Offsets are only meaningful while lowering kept the byte length.
	if index == -1 || len(contentLower) != len(content) {
		return truncate(content, maxLength)
	}

	start := max(index-50, 0)
	end := min(index+len(firstTerm)+100, len(content))
	start, end = runeBoundary(content, start), runeBoundary(content, end)
	snippet := content[start:end]

	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}

func truncate(content string, maxLength int) string {
	if len(content) <= maxLength {
		return content
	}
	return content[:runeBoundary(content, maxLength)] + "..."
}

// runeBoundary moves i back to the start of the UTF-8 sequence it falls in.
func runeBoundary(s string, i int) int {
	for i > 0 && i < len(s) && s[i]&0xC0 == 0x80 {
		i--
	}
	return i
}
