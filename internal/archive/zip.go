// Package archive bundles generated output files into a single zip for
// delivery.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// PackagingError is terminal for a request: there is nothing to deliver.
type PackagingError struct {
	Message string
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging error: %s", e.Message)
}

// Pack writes files into a zip archive at archivePath. Entries are
// added in the given order under their base names only, so repeated
// runs over identical inputs produce identical archives modulo
// timestamp metadata. An empty file list is an error.
func Pack(files []string, archivePath string) (string, error) {
	if len(files) == 0 {
		return "", &PackagingError{Message: "no generated files to package"}
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addFile(zw, path); err != nil {
			zw.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	log.Info().Str("archive", filepath.Base(archivePath)).Int("files", len(files)).Msg("packaged archive")
	return archivePath, nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	// Flattened: base name only, no directory structure inside the zip.
	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("add %s: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
