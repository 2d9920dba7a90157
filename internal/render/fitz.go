package render

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/pdftest"
)

// FitzRenderer renders pages through MuPDF (go-fitz).
type FitzRenderer struct{}

func (FitzRenderer) Available() bool { return true }

func (FitzRenderer) RenderDocument(ctx context.Context, srcPath string, dpi float64) ([]image.Image, error) {
	doc, err := fitz.New(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	images := make([]image.Image, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// go-fitz uses 0-based indexing.
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// Unavailable is the renderer selected when MuPDF cannot be loaded.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) RenderDocument(context.Context, string, float64) ([]image.Image, error) {
	return nil, ErrRenderingUnavailable
}

// Detect probes the MuPDF backend with a one-page in-memory document
// and returns the working renderer, or Unavailable when the shared
// library cannot be loaded.
func Detect() Renderer {
	doc, err := fitz.NewFromMemory(pdftest.Document(1))
	if err != nil {
		log.Warn().Err(err).Msg("MuPDF backend unavailable; jpg mode disabled")
		return Unavailable{}
	}
	doc.Close()
	return FitzRenderer{}
}
