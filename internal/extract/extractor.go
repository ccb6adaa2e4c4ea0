package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/ocr"
)

// OCR is the subset of *ocr.Extractor used for images and PDFs.
type OCR interface {
	ExtractImage(ctx context.Context, path string) (ocr.ExtractionResult, error)
	ExtractPDF(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Extractor dispatches on the declared format. It never sniffs content.
type Extractor struct {
	ocr    OCR
	logger *slog.Logger
}

func NewExtractor(o OCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: o, logger: logger}
}

// Extract implements TextExtractor. Every failure is an ExtractionError.
func (x *Extractor) Extract(ctx context.Context, doc Document) (TextExtractionResult, error) {
	start := time.Now()
	format := doc.Format()
	x.logger.Debug("extract.start", "name", doc.Name, "format", format)

	var (
		res TextExtractionResult
		err error
	)
	switch format {
	case constants.IMAGE:
		res, err = x.fromOCR(ctx, x.ocr.ExtractImage, doc.Path)
	case constants.PDF:
		res, err = x.fromOCR(ctx, x.ocr.ExtractPDF, doc.Path)
	case constants.DOCX:
		var text string
		text, err = DocxText(doc.Path)
		res = TextExtractionResult{Text: text, Pages: 1, Method: "docx"}
	case constants.TEXT:
		var text string
		text, err = plainText(doc.Path)
		res = TextExtractionResult{Text: text, Pages: 1, Method: "text"}
	default:
		x.logger.Warn("extract.unsupported", "name", doc.Name)
		return TextExtractionResult{}, common.ExtractionError(
			fmt.Sprintf("unsupported file type %q", doc.Name), common.ErrUnsupportedFormat)
	}
	res.SourceType = format
	res.Duration = time.Since(start)

	if err != nil {
		x.logger.Error("extract.failed", "name", doc.Name, "format", format, "error", err,
			"elapsed_ms", res.Duration.Milliseconds())
		return res, common.ExtractionError(fmt.Sprintf("could not read %s document", format), err)
	}
	x.logger.Info("extract.ok",
		"name", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (x *Extractor) fromOCR(ctx context.Context, fn func(context.Context, string) (ocr.ExtractionResult, error), path string) (TextExtractionResult, error) {
	if x.ocr == nil {
		return TextExtractionResult{}, fmt.Errorf("ocr is not configured")
	}
	r, err := fn(ctx, path)
	return TextExtractionResult{
		Text:     r.Text,
		Pages:    r.Pages,
		Method:   r.Method,
		Warnings: r.Warnings,
	}, err
}

func plainText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(b), nil
}
