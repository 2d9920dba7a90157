package pdftest

import (
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func TestDocumentPageCountRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for pages := 1; pages <= 8; pages++ {
		path := filepath.Join(dir, "doc.pdf")
		if err := WriteDocument(path, pages); err != nil {
			t.Fatalf("WriteDocument(%d): %v", pages, err)
		}
		got, err := api.PageCountFile(path)
		if err != nil {
			t.Fatalf("PageCountFile for %d-page document: %v", pages, err)
		}
		if got != pages {
			t.Errorf("page count = %d, want %d", got, pages)
		}
	}
}

func TestWriteDocumentRejectsNonPositivePages(t *testing.T) {
	dir := t.TempDir()
	for _, pages := range []int{0, -1} {
		if err := WriteDocument(filepath.Join(dir, "doc.pdf"), pages); err == nil {
			t.Errorf("WriteDocument(%d): expected error", pages)
		}
	}
}
