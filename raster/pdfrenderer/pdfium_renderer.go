package pdfrenderer

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumConfig sizes the WebAssembly worker pool
type PDFiumConfig struct {
	MinIdle  int
	MaxIdle  int
	MaxTotal int
	// InstanceTimeout is how long a call waits for a free worker
	InstanceTimeout time.Duration
}

// DefaultPDFiumConfig is a single worker, enough for sequential use
var DefaultPDFiumConfig = PDFiumConfig{
	MinIdle:         1,
	MaxIdle:         1,
	MaxTotal:        1,
	InstanceTimeout: 30 * time.Second,
}

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo).
// Each call borrows its own instance from the pool, so it is safe for concurrent use.
// Close waits for calls in flight, later calls return ErrClosed.
type PDFiumRenderer struct {
	mu      sync.RWMutex
	pool    pdfium.Pool
	timeout time.Duration
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	return NewPDFiumRendererWithConfig(DefaultPDFiumConfig)
}

// NewPDFiumRendererWithConfig creates a PDFium renderer with a custom pool size
func NewPDFiumRendererWithConfig(cfg PDFiumConfig) (*PDFiumRenderer, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  cfg.MinIdle,
		MaxIdle:  cfg.MaxIdle,
		MaxTotal: cfg.MaxTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	timeout := cfg.InstanceTimeout
	if timeout <= 0 {
		timeout = DefaultPDFiumConfig.InstanceTimeout
	}

	return &PDFiumRenderer{
		pool:    pool,
		timeout: timeout,
	}, nil
}

// withDocument borrows an instance, opens pdf and runs fn with its page count
func (r *PDFiumRenderer) withDocument(pdf []byte, fn func(instance pdfium.Pdfium, doc references.FPDF_DOCUMENT, numPages int) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pool == nil {
		return fmt.Errorf("PDFium: %w", ErrClosed)
	}

	instance, err := r.pool.GetInstance(r.timeout)
	if err != nil {
		return fmt.Errorf("failed to get PDFium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &pdf,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenDocument, err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		return fmt.Errorf("unable to get page count: %w", err)
	}
	if pageCountResp.PageCount < 1 {
		return fmt.Errorf("%w: document has no pages", ErrOpenDocument)
	}

	return fn(instance, doc.Document, pageCountResp.PageCount)
}

// PageCount returns the number of pages in the document
func (r *PDFiumRenderer) PageCount(pdf []byte) (int, error) {
	var count int
	err := r.withDocument(pdf, func(_ pdfium.Pdfium, _ references.FPDF_DOCUMENT, numPages int) error {
		count = numPages
		return nil
	})
	return count, err
}

// RenderPages rasterizes the requested 1-based pages at the given DPI
func (r *PDFiumRenderer) RenderPages(pdf []byte, dpi int, pages []int) ([]image.Image, error) {
	images := make([]image.Image, 0, len(pages))

	err := r.withDocument(pdf, func(instance pdfium.Pdfium, doc references.FPDF_DOCUMENT, numPages int) error {
		if err := checkPages(pages, numPages); err != nil {
			return err
		}

		for _, page := range pages {
			pageRender, err := instance.RenderPageInDPI(&requests.RenderPageInDPI{
				DPI: dpi,
				Page: requests.Page{
					ByIndex: &requests.PageByIndex{
						Document: doc,
						Index:    page - 1,
					},
				},
			})
			if err != nil {
				return fmt.Errorf("unable to render page %d: %w", page, err)
			}

			// The result image lives in WebAssembly memory until Cleanup, so copy it out
			images = append(images, cloneRGBA(pageRender.Result.Image))
			pageRender.Cleanup()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return images, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		err := r.pool.Close()
		r.pool = nil
		return err
	}
	return nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
