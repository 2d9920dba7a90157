package split

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/rs/zerolog/log"
)

// SplitPDF writes one PDF per plan unit into outDir, carrying the unit's
// page range over from srcPath unmodified (order, rotation and scaling
// preserved). Returns the written paths in unit order.
//
// Any failure aborts the remaining units; the caller owns outDir cleanup.
func SplitPDF(ctx context.Context, srcPath string, plan *OutputPlan, outDir string) ([]string, error) {
	rctx, err := api.ReadContextFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	paths := make([]string, 0, len(plan.Units))
	for _, u := range plan.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// pdfcpu page numbers are 1-based.
		pages := make([]int, 0, u.End-u.Start)
		for p := u.Start + 1; p <= u.End; p++ {
			pages = append(pages, p)
		}

		uctx, err := pdfcpu.ExtractPages(rctx, pages, false)
		if err != nil {
			return nil, fmt.Errorf("extract pages %d-%d: %w", u.Start+1, u.End, err)
		}

		outPath := filepath.Join(outDir, u.Name+".pdf")
		if err := api.WriteContextFile(uctx, outPath); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(outPath), err)
		}

		log.Info().
			Str("file", filepath.Base(outPath)).
			Int("from_page", u.Start+1).
			Int("to_page", u.End).
			Msg("generated pdf unit")
		paths = append(paths, outPath)
	}
	return paths, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
