// Package render rasterizes document pages with MuPDF through go-fitz.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdf-reader-session/internal/domain"

	"github.com/gen2brain/go-fitz"
)

// pointsPerInch is the resolution at which MuPDF reports page bounds.
const pointsPerInch = 72.0

const defaultPageTimeout = 90 * time.Second

// Opener opens documents below a root directory.
type Opener struct {
	root        string
	pageTimeout time.Duration
	logger      domain.Logger
}

// NewOpener creates an opener rooted at root.
func NewOpener(root string, logger domain.Logger) *Opener {
	return &Opener{
		root:        root,
		pageTimeout: defaultPageTimeout,
		logger:      logger,
	}
}

// Resolve maps a document path to a file below the root. Paths may not escape the root.
func (o *Opener) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &domain.ValidationError{Field: "path", Message: "document path is required"}
	}
	root, err := filepath.Abs(o.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve document root: %w", err)
	}
	full := filepath.Join(root, filepath.Clean(string(filepath.Separator)+filepath.FromSlash(path)))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &domain.ValidationError{Field: "path", Message: "document path escapes the document root"}
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrDocumentNotFound
		}
		return "", fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return "", &domain.ValidationError{Field: "path", Message: "document path is a directory"}
	}
	return full, nil
}

// Open opens a document for rendering.
func (o *Opener) Open(ctx context.Context, handle domain.DocumentHandle) (domain.Document, error) {
	path, err := o.Resolve(handle.Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	pages := doc.NumPage()
	o.logger.Debug("Document opened", "document_id", handle.DocumentID, "path", path, "pages", pages)
	return &Document{
		doc:         doc,
		documentID:  handle.DocumentID,
		pages:       pages,
		pageTimeout: o.pageTimeout,
		logger:      o.logger,
	}, nil
}

// Document renders the pages of one open file.
type Document struct {
	doc         *fitz.Document
	documentID  string
	pages       int
	pageTimeout time.Duration
	logger      domain.Logger
	rasters     sync.WaitGroup
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pages
}

type rasterResult struct {
	img *image.RGBA
	err error
}

// RenderPage rasterizes a 1-based page so that it is width layout pixels wide.
// scale multiplies the raster density without changing the layout height.
func (d *Document) RenderPage(ctx context.Context, page int, width, scale float64) (*domain.RenderedPage, error) {
	if page < 1 || page > d.pages {
		return nil, &domain.RenderError{Page: page, Cause: domain.ErrPageOutOfRange}
	}

	bounds, err := d.doc.Bound(page - 1)
	if err != nil {
		return nil, &domain.RenderError{Page: page, Cause: err}
	}
	height, dpi, err := layout(bounds, width, scale)
	if err != nil {
		return nil, &domain.RenderError{Page: page, Cause: err}
	}

	resultCh := make(chan rasterResult, 1)
	d.rasters.Add(1)
	go func() {
		defer d.rasters.Done()
		img, err := d.doc.ImageDPI(page-1, dpi)
		resultCh <- rasterResult{img: img, err: err}
	}()

	timer := time.NewTimer(d.pageTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, &domain.RenderError{Page: page, Cause: res.err}
		}
		return &domain.RenderedPage{
			Page:          page,
			Width:         width,
			Scale:         scale,
			NaturalHeight: height,
			Surface:       res.img,
		}, nil
	case <-ctx.Done():
		return nil, &domain.RenderError{Page: page, Cause: ctx.Err()}
	case <-timer.C:
		d.logger.Warn("Page render timeout", "document_id", d.documentID, "page", page, "timeout_sec", int(d.pageTimeout.Seconds()))
		return nil, &domain.RenderError{Page: page, Cause: fmt.Errorf("timeout after %v", d.pageTimeout)}
	}
}

// Close releases the MuPDF context once abandoned rasterizations have finished.
func (d *Document) Close() error {
	d.rasters.Wait()
	return d.doc.Close()
}

// layout derives the layout height of a page rendered at width, and the raster DPI.
func layout(bounds image.Rectangle, width, scale float64) (float64, float64, error) {
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return 0, 0, errors.New("page has empty bounds")
	}
	if width <= 0 {
		return 0, 0, errors.New("render width must be positive")
	}
	if scale <= 0 {
		scale = 1
	}
	ratio := width / float64(bounds.Dx())
	return float64(bounds.Dy()) * ratio, pointsPerInch * ratio * scale, nil
}
