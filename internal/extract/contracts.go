package extract

import (
	"context"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/mediscan/constants"
)

// Document is an uploaded file. Name carries the declared type; Path is where
// the bytes live on disk.
type Document struct {
	Name string
	Path string
}

// Format is the declared format, derived from Name (or Path when Name is empty).
func (d Document) Format() constants.FileFormat {
	name := d.Name
	if name == "" {
		name = d.Path
	}
	return constants.MapExtToFormat(filepath.Ext(name))
}

// TextExtractor turns a document into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "docx" | "text"
	Duration   time.Duration
	Warnings   []string
}
