package domain

import (
	"context"
	"fmt"
	"image"
)

// DocumentHandle identifies a document to open.
type DocumentHandle struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
}

// RenderedPage is the output of the render proxy for one page.
type RenderedPage struct {
	Page          int
	Width         float64
	Scale         float64
	NaturalHeight float64
	Surface       image.Image
}

// PageRenderer rasterizes a single 1-based page at a layout width.
type PageRenderer interface {
	RenderPage(ctx context.Context, page int, width, scale float64) (*RenderedPage, error)
}

// Document is an opened, renderable document.
type Document interface {
	PageRenderer
	PageCount() int
	Close() error
}

// DocumentOpener opens documents for reading sessions.
type DocumentOpener interface {
	Open(ctx context.Context, handle DocumentHandle) (Document, error)
}

// RenderError reports that one page failed to materialize.
type RenderError struct {
	Page  int
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d: %v", e.Page, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
