// Package tex2img compiles LaTeX through a remote compilation service and
// rasterizes the resulting PDF.
package tex2img

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/drummonds/tex2img/compiler"
	"github.com/drummonds/tex2img/config"
	"github.com/drummonds/tex2img/raster"
	"github.com/drummonds/tex2img/raster/pdfrenderer"
	"github.com/drummonds/tex2img/texerror"
)

const opRender = "render"

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// InjectLogger injects logger into every package of the module
func InjectLogger(logger *slog.Logger) {
	Logger = logger
	compiler.Logger = logger
	raster.Logger = logger
	config.Logger = logger
}

// Renderer compiles LaTeX source and converts the PDF to images
type Renderer struct {
	client    *compiler.Client
	converter *raster.Converter
	renderer  pdfrenderer.Renderer
	closed    atomic.Bool
}

// New builds a Renderer using the engine named in cfg.Renderer
func New(cfg config.Config) (*Renderer, error) {
	renderer, err := pdfrenderer.NewRenderer(cfg.Renderer)
	if err != nil {
		return nil, err
	}

	r, err := NewWithRenderer(cfg, renderer)
	if err != nil {
		renderer.Close()
		return nil, err
	}
	return r, nil
}

// NewWithRenderer builds a Renderer around an existing rasterization engine.
// The Renderer takes ownership of it and closes it on Close.
func NewWithRenderer(cfg config.Config, renderer pdfrenderer.Renderer) (*Renderer, error) {
	client, err := compiler.NewClient(cfg.Compile)
	if err != nil {
		return nil, err
	}

	converter, err := raster.NewConverter(renderer, cfg.Raster)
	if err != nil {
		return nil, err
	}

	Logger.Debug("Renderer ready",
		"apiURL", client.Options().APIURL,
		"compiler", client.Options().Compiler,
		"engine", cfg.Renderer)

	return &Renderer{
		client:    client,
		converter: converter,
		renderer:  renderer,
	}, nil
}

// CompilePDF compiles source and returns the PDF unchanged
func (r *Renderer) CompilePDF(ctx context.Context, source string) ([]byte, error) {
	return r.client.Compile(ctx, source)
}

// Render compiles source and rasterizes it with the configured options
func (r *Renderer) Render(ctx context.Context, source string) (*raster.Result, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	pdf, err := r.client.Compile(ctx, source)
	if err != nil {
		return nil, err
	}
	return r.converter.Convert(pdf)
}

// RenderPNG compiles source and returns its first page as PNG, at the configured DPI
func (r *Renderer) RenderPNG(ctx context.Context, source string) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	pdf, err := r.client.Compile(ctx, source)
	if err != nil {
		return nil, err
	}

	opts := r.converter.Options()
	opts.Pages = raster.FirstPage()
	opts.Format = "png"

	result, err := r.converter.ConvertWith(pdf, opts)
	if err != nil {
		return nil, err
	}
	if len(result.Pages) == 0 {
		return nil, texerror.New(texerror.CorruptDocument, opRender, fmt.Errorf("no image produced"))
	}
	return result.First().Data, nil
}

// checkOpen fails before any network call once the engine is released
func (r *Renderer) checkOpen() error {
	if r.closed.Load() {
		return texerror.New(texerror.InvalidInput, opRender, pdfrenderer.ErrClosed)
	}
	return nil
}

// Close releases the rasterization engine. CompilePDF keeps working afterwards.
func (r *Renderer) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.renderer.Close()
}
