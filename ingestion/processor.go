package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/drive/v3"
)

const HTMLMimeType = "text/html"

var ErrExportTooLarge = errors.New("export exceeds size limit")

type ExportOptions struct {
	// Timeout bounds one export including reading the body. Zero means none.
	Timeout time.Duration
	// MaxBytes caps the exported document size. Zero means no cap.
	MaxBytes int64
}

type DriveExporter struct {
	service *drive.Service
	opts    ExportOptions
	logger  hclog.Logger
}

func NewDriveExporter(service *drive.Service, opts ExportOptions, logger hclog.Logger) *DriveExporter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DriveExporter{service: service, opts: opts, logger: logger}
}

// ExportHTML renders documentID to HTML on the Drive side and returns the
// body as one string.
func (p *DriveExporter) ExportHTML(ctx context.Context, documentID string) (string, error) {
	p.logger.Debug("exporting document", "id", documentID)

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	response, err := p.service.Files.Export(documentID, HTMLMimeType).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("failed to export document %s: %w", documentID, err)
	}
	defer response.Body.Close()

	content, err := readCapped(response.Body, p.opts.MaxBytes)
	if err != nil {
		return "", fmt.Errorf("failed to read export of %s: %w", documentID, err)
	}
	return content, nil
}

func readCapped(r io.Reader, max int64) (string, error) {
	if max <= 0 {
		b, err := io.ReadAll(r)
		return string(b), err
	}
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return "", err
	}
	if int64(len(b)) > max {
		return "", fmt.Errorf("%w of %d bytes", ErrExportTooLarge, max)
	}
	return string(b), nil
}
