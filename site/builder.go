package site

import (
	"context"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"time"

	"docsite/models"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrTemplate means the page template could not be read.
var ErrTemplate = errors.New("unable to read template")

type Lister interface {
	List(ctx context.Context, folderID string) ([]*models.Document, error)
}

type Exporter interface {
	ExportHTML(ctx context.Context, documentID string) (string, error)
}

// Recorder receives the pages of a finished build.
type Recorder interface {
	ReplacePages(ctx context.Context, pages []models.Page) error
}

type Options struct {
	FolderID     string
	OutputDir    string
	TemplatePath string
	SiteTitle    string
	// Concurrency is the number of documents exported at once. Values below 1 mean 1.
	Concurrency int
}

type Result struct {
	OutputDir string
	Pages     []models.Page
}

type Builder struct {
	fs       afero.Fs
	lister   Lister
	exporter Exporter
	recorder Recorder
	logger   hclog.Logger
	now      func() time.Time
}

// NewBuilder wires a build. recorder may be nil.
func NewBuilder(fs afero.Fs, lister Lister, exporter Exporter, recorder Recorder, logger hclog.Logger) *Builder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Builder{
		fs:       fs,
		lister:   lister,
		exporter: exporter,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Build lists the folder, writes one page per document and then index.html.
// The first failure aborts the run; files already written stay on disk.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	if err := b.fs.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output directory %s: %w", opts.OutputDir, err)
	}

	raw, err := afero.ReadFile(b.fs, opts.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrTemplate, opts.TemplatePath, err)
	}
	tpl := string(raw)

	docs, err := b.lister.List(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		b.logger.Warn("no Google Docs found in the folder", "folder", opts.FolderID)
	}

	slugs := AssignSlugs(docs)
	for i, doc := range docs {
		if base := Slug(doc.Name); slugs[i] != base {
			b.logger.Warn("slug collision, disambiguated", "name", doc.Name, "slug", slugs[i])
		}
	}
	nav := Nav(docs, slugs)

	pages, err := b.buildPages(ctx, opts, tpl, nav, docs, slugs)
	if err != nil {
		return nil, err
	}

	siteTitle := html.EscapeString(opts.SiteTitle)
	index := Render(tpl, RenderContext{
		Title:     siteTitle,
		SiteTitle: siteTitle,
		Nav:       nav,
		Content:   IndexContent(opts.SiteTitle, docs, slugs),
	})
	if err := b.write(opts.OutputDir, indexSlug+".html", index); err != nil {
		return nil, err
	}

	if b.recorder != nil {
		if err := b.recorder.ReplacePages(ctx, pages); err != nil {
			return nil, fmt.Errorf("unable to record pages: %w", err)
		}
	}

	b.logger.Info("build complete", "pages", len(pages), "output", opts.OutputDir)
	return &Result{OutputDir: opts.OutputDir, Pages: pages}, nil
}

func (b *Builder) buildPages(ctx context.Context, opts Options, tpl, nav string, docs []*models.Document, slugs []string) ([]models.Page, error) {
	pages := make([]models.Page, len(docs))

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, doc := range docs {
		g.Go(func() error {
			raw, err := b.exporter.ExportHTML(gctx, doc.ID)
			if err != nil {
				return err
			}

			page := models.Page{
				Slug:         slugs[i],
				DocumentID:   doc.ID,
				Title:        doc.Name,
				WebViewLink:  doc.WebViewLink,
				ModifiedTime: doc.ModifiedTime,
				Content:      ExtractBody(raw),
				BuiltAt:      b.now(),
			}
			out := Render(tpl, RenderContext{
				Title:     html.EscapeString(doc.Name),
				SiteTitle: html.EscapeString(opts.SiteTitle),
				Content:   page.Content,
				Nav:       nav,
			})
			if err := b.write(opts.OutputDir, page.FileName(), out); err != nil {
				return err
			}

			pages[i] = page
			b.logger.Info("✓ "+doc.Name, "file", page.FileName())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (b *Builder) write(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := afero.WriteFile(b.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}
