// Package pdftest builds small synthetic PDF documents, used by tests
// and by the renderer availability probe.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Each page carries a content stream padded to this length so the file
// stays above the tail-scan window PDF readers use to locate startxref,
// even for a single-page document.
const contentStreamLen = 1536

// WriteDocument writes a minimal but valid PDF with the given number of
// pages to path. Pages are A4-sized with a trivial content stream; only
// the page structure matters to callers.
func WriteDocument(path string, pages int) error {
	if pages <= 0 {
		return fmt.Errorf("pdftest: page count must be positive, got %d", pages)
	}
	return os.WriteFile(path, Document(pages), 0o644)
}

// Document returns the raw bytes of a minimal PDF with the given number
// of pages.
func Document(pages int) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 2*pages+2)

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	// Object 1: catalog, object 2: page tree, objects 3..2+pages: pages,
	// objects 3+pages..2+2*pages: page content streams.
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	var kids bytes.Buffer
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&kids, "%d 0 R ", 3+i)
	}
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [ %s] /Count %d >>\nendobj\n", kids.String(), pages))

	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> /Contents %d 0 R >>\nendobj\n", 3+i, 3+pages+i))
	}

	content := contentStream()
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", 3+pages+i, len(content), content))
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)

	return buf.Bytes()
}

// contentStream draws a light gray page background and pads with
// whitespace, which is insignificant in PDF content streams.
func contentStream() string {
	ops := "0.9 g\n0 0 595 842 re\nf\n"
	return ops + strings.Repeat(" ", contentStreamLen-len(ops))
}
