package pdfrenderer

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
	closed atomic.Bool
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

func openFitz(pdf []byte) (*fitz.Document, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenDocument, err)
	}
	// MuPDF repairs aggressively and can "open" garbage as an empty document
	if doc.NumPage() < 1 {
		doc.Close()
		return nil, fmt.Errorf("%w: document has no pages", ErrOpenDocument)
	}
	return doc, nil
}

// PageCount returns the number of pages in the document
func (r *FitzRenderer) PageCount(pdf []byte) (int, error) {
	if r.closed.Load() {
		return 0, fmt.Errorf("fitz: %w", ErrClosed)
	}
	doc, err := openFitz(pdf)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// RenderPages converts the requested 1-based pages to images using go-fitz
func (r *FitzRenderer) RenderPages(pdf []byte, dpi int, pages []int) ([]image.Image, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("fitz: %w", ErrClosed)
	}
	doc, err := openFitz(pdf)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if err := checkPages(pages, doc.NumPage()); err != nil {
		return nil, err
	}

	images := make([]image.Image, 0, len(pages))
	for _, page := range pages {
		img, err := doc.ImageDPI(page-1, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", page, err)
		}
		images = append(images, img)
	}

	return images, nil
}

// Close marks the renderer closed. Documents are already closed per call.
func (r *FitzRenderer) Close() error {
	r.closed.Store(true)
	return nil
}
