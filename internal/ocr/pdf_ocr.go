package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/mediscan/constants"
)

// ExtractPDF returns the text layer of every page in page order. PDFs without
// a text layer are rasterized and run through tesseract page by page.
func (e *Extractor) ExtractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	res := ExtractionResult{SourceType: constants.PDF, Language: e.cfg.TesseractLang}

	pages, warns, err := e.pdfToText(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("pdftotext: %w", err)
	}
	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) != "" {
		res.Text = text
		res.Pages = len(pages)
		res.Method = "pdf-text"
		res.Duration = time.Since(start)
		return res, nil
	}

	e.logger.Info("ocr.pdf.no_text_layer", "path", path, "hint", "falling back to pdftoppm+tesseract")
	pages, warns, err = e.pdfToOCR(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("pdf ocr: %w", err)
	}
	res.Text = Normalize(strings.Join(pages, "\n"))
	res.Pages = len(pages)
	res.Method = "pdf-ocr"
	return res, nil
}

// pdftotext -enc UTF-8 -eol unix <path> -
func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []string, error) {
	out, errb, err := e.runTool(ctx, e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, nonEmpty(string(errb)), err
	}
	// A form-feed \f terminates every page.
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([]string, []string, error) {
	tmpDir, err := os.MkdirTemp("", "mediscan-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runTool(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, nonEmpty(string(errb)), err
	}

	// prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var pages, warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		pages = append(pages, txt)
	}
	if len(pages) == 0 {
		return nil, warns, fmt.Errorf("ocr failed on all %d pages", len(matches))
	}
	return pages, warns, nil
}
