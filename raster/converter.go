package raster

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/drummonds/tex2img/raster/pdfrenderer"
	"github.com/drummonds/tex2img/texerror"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

const opConvert = "convert"

// Page is one rasterized page
type Page struct {
	// Number is the 1-based page in the source PDF
	Number int
	Data   []byte
	Width  int
	Height int
}

// Result holds the encoded images in the order they were requested
type Result struct {
	Format   string
	MimeType string
	Pages    []Page
	single   bool
}

// Single reports whether exactly one page was requested ("first" or a one-page list)
func (r *Result) Single() bool {
	return r.single
}

// First returns the first image in the result
func (r *Result) First() Page {
	if len(r.Pages) == 0 {
		return Page{}
	}
	return r.Pages[0]
}

// Converter turns PDF bytes into raster images using a Renderer.
// It keeps no state between calls.
type Converter struct {
	renderer   pdfrenderer.Renderer
	opts       Options
	countPages func([]byte) (int, error)
}

// NewConverter validates opts and creates a converter backed by renderer
func NewConverter(renderer pdfrenderer.Renderer, opts Options) (*Converter, error) {
	if renderer == nil {
		return nil, texerror.Invalid(opConvert, "no renderer")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Converter{
		renderer:   renderer,
		opts:       opts,
		countPages: countPages,
	}, nil
}

// Options returns the effective options, defaults filled in
func (c *Converter) Options() Options {
	return c.opts
}

// Convert rasterizes pdf with the converter's options
func (c *Converter) Convert(pdf []byte) (*Result, error) {
	return c.convert(pdf, c.opts)
}

// ConvertWith rasterizes pdf with one-off options
func (c *Converter) ConvertWith(pdf []byte, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return c.convert(pdf, opts)
}

func (c *Converter) convert(pdf []byte, opts Options) (*Result, error) {
	if len(pdf) == 0 {
		return nil, texerror.Invalid(opConvert, "pdf is empty")
	}

	format, mimeType, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	numPages, err := c.pageCount(pdf)
	if err != nil {
		return nil, classifyRenderError(err)
	}

	pages, err := opts.Pages.resolve(numPages)
	if err != nil {
		return nil, err
	}

	images, err := c.renderer.RenderPages(pdf, opts.DPI, pages)
	if err != nil {
		return nil, classifyRenderError(err)
	}
	if len(images) != len(pages) {
		return nil, texerror.New(texerror.CorruptDocument, opConvert,
			fmt.Errorf("renderer returned %d images for %d pages", len(images), len(pages)))
	}

	result := &Result{
		Format:   opts.Format,
		MimeType: mimeType,
		Pages:    make([]Page, 0, len(images)),
		single:   opts.Pages.single(),
	}

	for i, img := range images {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
			return nil, texerror.New(texerror.CorruptDocument, opConvert,
				fmt.Errorf("failed to encode page %d as %s: %w", pages[i], opts.Format, err))
		}
		bounds := img.Bounds()
		result.Pages = append(result.Pages, Page{
			Number: pages[i],
			Data:   buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}

	Logger.Debug("PDF rasterized",
		"options", opts.describe(),
		"documentPages", numPages,
		"images", len(result.Pages),
		"duration", time.Since(start))

	return result, nil
}

// pageCount prefers the pure Go reader so page ranges are checked before any
// rasterization, and asks the renderer when the reader cannot parse the file.
func (c *Converter) pageCount(pdf []byte) (int, error) {
	numPages, err := c.countPages(pdf)
	if err == nil && numPages > 0 {
		return numPages, nil
	}
	Logger.Debug("Falling back to renderer page count", "error", err)

	numPages, err = c.renderer.PageCount(pdf)
	if err != nil {
		return 0, err
	}
	if numPages < 1 {
		return 0, fmt.Errorf("document has no pages")
	}
	return numPages, nil
}

func classifyRenderError(err error) error {
	switch {
	case errors.Is(err, pdfrenderer.ErrPageRange):
		return texerror.Invalid(opConvert, "%w: %w", texerror.ErrPageOutOfRange, err)
	case errors.Is(err, pdfrenderer.ErrClosed):
		return texerror.New(texerror.InvalidInput, opConvert, err)
	default:
		return texerror.New(texerror.CorruptDocument, opConvert, err)
	}
}
