package filetype

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Detector identifies files by magic bytes, not by filename.
type Detector struct{}

// New creates a new file type detector.
func New() *Detector {
	return &Detector{}
}

// Detect returns the MIME type of the file at filePath.
func (d *Detector) Detect(filePath string) (string, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	log.Debug().Str("mime", mtype.String()).Str("file", filePath).Msg("detected file type")
	return mtype.String(), nil
}

// EnsurePDF fails when the file at filePath is not a PDF document.
// Content inspection stops at the container type; page structure is
// validated later by the PDF reader itself.
func (d *Detector) EnsurePDF(filePath string) error {
	mime, err := d.Detect(filePath)
	if err != nil {
		return err
	}
	if mime != "application/pdf" {
		return fmt.Errorf("unsupported file type %s: only PDF input is accepted", mime)
	}
	return nil
}
