package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	// ErrOpenDocument is returned when the bytes cannot be opened as a PDF
	ErrOpenDocument = errors.New("unable to open PDF document")
	// ErrPageRange is returned when a requested page is outside the document
	ErrPageRange = errors.New("page outside document")
	// ErrClosed is returned by a renderer used after Close
	ErrClosed = errors.New("renderer is closed")
)

// Engine names accepted by NewRenderer
const (
	EnginePDFium = "pdfium"
	EngineFitz   = "fitz"
)

// Renderer defines the interface for PDF to image conversion
type Renderer interface {
	// PageCount opens the document and returns its number of pages
	PageCount(pdf []byte) (int, error)

	// RenderPages rasterizes the given 1-based pages at dpi, in the order given.
	// Returns one image per requested page.
	RenderPages(pdf []byte, dpi int, pages []int) ([]image.Image, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// NewRenderer creates a renderer for the named engine. An empty name selects
// PDFium (pure Go, no CGo).
func NewRenderer(engine string) (Renderer, error) {
	switch strings.ToLower(engine) {
	case "", EnginePDFium:
		return NewPDFiumRenderer()
	case EngineFitz, "mupdf":
		return NewFitzRenderer()
	default:
		return nil, fmt.Errorf("unknown PDF renderer %q", engine)
	}
}

func checkPages(pages []int, numPages int) error {
	for _, page := range pages {
		if page < 1 || page > numPages {
			return fmt.Errorf("page %d of %d: %w", page, numPages, ErrPageRange)
		}
	}
	return nil
}
