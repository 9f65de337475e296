package raster

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// countPages reads the page tree with a pure Go parser, without rasterizing.
// The parser panics on some malformed files, so that is turned into an error.
func countPages(data []byte) (numPages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to create PDF reader: %w", err)
	}
	return reader.NumPage(), nil
}
