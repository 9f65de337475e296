package pdfrenderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/drummonds/tex2img/internal/testpdf"
)

func newEngines(t *testing.T) map[string]Renderer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PDF engine test in short mode")
	}

	engines := map[string]Renderer{}
	for _, name := range []string{EnginePDFium, EngineFitz} {
		renderer, err := NewRenderer(name)
		if err != nil {
			t.Fatalf("Failed to create %s renderer: %v", name, err)
		}
		t.Cleanup(func() { renderer.Close() })
		engines[name] = renderer
	}
	return engines
}

func within(got, want, tolerance int) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func TestRenderersPageCount(t *testing.T) {
	pdf := testpdf.Pages(3)

	for name, renderer := range newEngines(t) {
		t.Run(name, func(t *testing.T) {
			count, err := renderer.PageCount(pdf)
			if err != nil {
				t.Fatalf("PageCount failed: %v", err)
			}
			if count != 3 {
				t.Errorf("PageCount = %d, want 3", count)
			}
		})
	}
}

func TestRenderersScaleWithDPI(t *testing.T) {
	pdf := testpdf.Pages(2)

	for name, renderer := range newEngines(t) {
		t.Run(name, func(t *testing.T) {
			images, err := renderer.RenderPages(pdf, 144, []int{2, 1})
			if err != nil {
				t.Fatalf("RenderPages failed: %v", err)
			}
			if len(images) != 2 {
				t.Fatalf("Expected 2 images, got %d", len(images))
			}

			bounds := images[0].Bounds()
			wantWidth := testpdf.PageWidth * 144 / 72
			wantHeight := testpdf.PageHeight * 144 / 72
			if !within(bounds.Dx(), wantWidth, 1) || !within(bounds.Dy(), wantHeight, 1) {
				t.Errorf("Image is %dx%d, want about %dx%d", bounds.Dx(), bounds.Dy(), wantWidth, wantHeight)
			}
		})
	}
}

func TestRenderersRejectBadInput(t *testing.T) {
	pdf := testpdf.Pages(1)

	for name, renderer := range newEngines(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := renderer.RenderPages([]byte("this is not a pdf"), 72, []int{1}); !errors.Is(err, ErrOpenDocument) {
				t.Errorf("Expected ErrOpenDocument, got %v", err)
			}
			if _, err := renderer.RenderPages(pdf, 72, []int{2}); !errors.Is(err, ErrPageRange) {
				t.Errorf("Expected ErrPageRange, got %v", err)
			}
		})
	}
}

func TestNewRendererUnknownEngine(t *testing.T) {
	if _, err := NewRenderer("ghostscript"); err == nil {
		t.Error("Expected an error for an unknown engine")
	}
}

func TestCheckPages(t *testing.T) {
	if err := checkPages([]int{1, 3, 2}, 3); err != nil {
		t.Errorf("Expected pages within range to pass, got %v", err)
	}
	if err := checkPages([]int{0}, 3); !errors.Is(err, ErrPageRange) {
		t.Errorf("Expected ErrPageRange for page 0, got %v", err)
	}
	if err := checkPages([]int{4}, 3); !errors.Is(err, ErrPageRange) {
		t.Errorf("Expected ErrPageRange for page 4, got %v", err)
	}
}

func TestRenderersAfterClose(t *testing.T) {
	pdf := testpdf.Pages(1)

	for name, renderer := range newEngines(t) {
		t.Run(name, func(t *testing.T) {
			if err := renderer.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if _, err := renderer.PageCount(pdf); !errors.Is(err, ErrClosed) {
				t.Errorf("PageCount after Close = %v, want ErrClosed", err)
			}
			if _, err := renderer.RenderPages(pdf, 72, []int{1}); !errors.Is(err, ErrClosed) {
				t.Errorf("RenderPages after Close = %v, want ErrClosed", err)
			}
			if err := renderer.Close(); err != nil {
				t.Errorf("Second Close should be a no-op, got %v", err)
			}
		})
	}
}

func TestPDFiumCloseDuringUse(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDF engine test in short mode")
	}

	renderer, err := NewPDFiumRendererWithConfig(PDFiumConfig{MinIdle: 1, MaxIdle: 2, MaxTotal: 2})
	if err != nil {
		t.Fatalf("Failed to create PDFium renderer: %v", err)
	}
	pdf := testpdf.Pages(2)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := renderer.RenderPages(pdf, 36, []int{1, 2})
			if err != nil && !errors.Is(err, ErrClosed) {
				t.Errorf("RenderPages = %v, want success or ErrClosed", err)
			}
		}()
	}
	if err := renderer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	wg.Wait()

	if _, err := renderer.PageCount(pdf); !errors.Is(err, ErrClosed) {
		t.Errorf("PageCount after Close = %v, want ErrClosed", err)
	}
}
