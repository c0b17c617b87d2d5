package ingestion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"docsite/models"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"google.golang.org/api/drive/v3"
)

const (
	DocumentMimeType = "application/vnd.google-apps.document"
	listPageSize     = 1000
	listFields       = "nextPageToken, files(id, name, webViewLink, modifiedTime)"
)

type DriveLister struct {
	service *drive.Service
	logger  hclog.Logger
}

func NewDriveLister(service *drive.Service, logger hclog.Logger) *DriveLister {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DriveLister{service: service, logger: logger}
}

// List returns every non-trashed Google Doc directly inside folderID, sorted by name.
func (d *DriveLister) List(ctx context.Context, folderID string) ([]*models.Document, error) {
	d.logger.Info("listing folder", "folder", folderID)

	var docs []*models.Document
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escapeQuery(folderID), DocumentMimeType)
	pageToken := ""

	for {
		call := d.service.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(listPageSize).
			Context(ctx)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		for _, file := range response.Files {
			d.logger.Debug("found document", "name", file.Name, "id", file.Id)
			docs = append(docs, toDocument(file))
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	SortByName(docs)
	return docs, nil
}

// SortByName orders docs with a case-sensitive, locale-aware comparison of
// their names. Equal names are ordered by ID.
func SortByName(docs []*models.Document) {
	c := collate.New(language.Und)
	sort.SliceStable(docs, func(i, j int) bool {
		if r := c.CompareString(docs[i].Name, docs[j].Name); r != 0 {
			return r < 0
		}
		return docs[i].ID < docs[j].ID
	})
}

func toDocument(file *drive.File) *models.Document {
	doc := &models.Document{
		ID:          file.Id,
		Name:        file.Name,
		WebViewLink: file.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		doc.ModifiedTime = t
	}
	return doc
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
