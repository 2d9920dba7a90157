package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ErrRenderingUnavailable is returned when no rendering backend is
// present in the runtime environment. Reportable, not fatal to the
// process.
var ErrRenderingUnavailable = errors.New("image rendering is not available in this environment")

// PageCountMismatchError records a discrepancy between the document's
// page count and the number of images the backend produced. It is
// logged as a warning; processing continues with the pages that exist.
type PageCountMismatchError struct {
	Expected int
	Actual   int
}

func (e *PageCountMismatchError) Error() string {
	return fmt.Sprintf("page count mismatch: document has %d pages, renderer produced %d images", e.Expected, e.Actual)
}

// Renderer rasterizes every page of a PDF document. One implementation
// wraps MuPDF via go-fitz; the Unavailable variant is selected at
// startup when the backend cannot be loaded.
type Renderer interface {
	Available() bool
	RenderDocument(ctx context.Context, srcPath string, dpi float64) ([]image.Image, error)
}

// Options control rasterization output.
type Options struct {
	DPI     float64
	Quality int
}

// RasterizeDocument renders every page of srcPath and writes one JPEG
// per page to outDir, named names[i]+".jpg" in page order. Returns the
// written paths in order.
//
// When the backend produces a different number of images than
// totalPages, a reconciliation warning is logged and the run continues
// with min(totalPages, len(names), images produced) pages rather than
// aborting.
func RasterizeDocument(ctx context.Context, r Renderer, srcPath string, totalPages int, names []string, outDir string, opts Options) ([]string, error) {
	if r == nil || !r.Available() {
		return nil, ErrRenderingUnavailable
	}
	if opts.DPI <= 0 {
		opts.DPI = 200
	}
	if opts.Quality <= 0 {
		opts.Quality = 90
	}

	images, err := r.RenderDocument(ctx, srcPath, opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	if len(images) != totalPages {
		mismatch := &PageCountMismatchError{Expected: totalPages, Actual: len(images)}
		log.Warn().Int("expected", mismatch.Expected).Int("actual", mismatch.Actual).Msg(mismatch.Error())
	}

	n := totalPages
	if len(names) < n {
		n = len(names)
	}
	if len(images) < n {
		n = len(images)
	}

	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outPath := filepath.Join(outDir, names[i]+".jpg")
		if err := writeJPEG(outPath, images[i], opts.Quality); err != nil {
			return nil, err
		}
		log.Info().Str("file", filepath.Base(outPath)).Int("page", i+1).Msg("generated jpg unit")
		paths = append(paths, outPath)
	}
	return paths, nil
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return nil
}
