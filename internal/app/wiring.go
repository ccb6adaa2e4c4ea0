package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/druginfo"
	"github.com/joseph-ayodele/mediscan/internal/entities"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/llm"
	"github.com/joseph-ayodele/mediscan/internal/llm/openai"
	"github.com/joseph-ayodele/mediscan/internal/observability"
	"github.com/joseph-ayodele/mediscan/internal/ocr"
	"github.com/joseph-ayodele/mediscan/internal/pipeline"
)

// NewLogger returns a JSON handler for format "json" and otherwise a text
// handler that drops time and level, keeping message and attributes.
func NewLogger(w io.Writer, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// NewProcessor wires text extraction, entity extraction, the vision record
// extractor (when a key is set) and the drug lookup into one pipeline.
func NewProcessor(cfg *common.Config, metrics *observability.Metrics, logger *slog.Logger) *pipeline.Processor {
	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	text := extract.NewExtractor(ocrx, logger)

	var model entities.EntityModel = entities.SuffixModel{}
	if cfg.Entities.NERURL != "" {
		model = entities.NewHTTPModel(cfg.Entities.NERURL, cfg.Entities.NERTimeout, logger)
	}
	ents := entities.NewExtractor(entities.RegexNameExtractor{}, model, logger)

	var records llm.RecordExtractor
	if cfg.Vision.APIKey != "" {
		records = openai.NewClient(openai.Config{
			APIKey:    cfg.Vision.APIKey,
			BaseURL:   cfg.Vision.BaseURL,
			Model:     cfg.Vision.Model,
			MaxTokens: cfg.Vision.MaxTokens,
			Timeout:   cfg.Vision.Timeout,
			Partial:   cfg.Vision.RecordPolicy == common.RecordPolicyPartial,
		}, logger)
	} else {
		logger.Warn("app.vision.disabled", "reason", "OPENAI_API_KEY not set")
	}

	drugs := druginfo.NewClient(druginfo.Config{
		BaseURL: cfg.DrugInfo.BaseURL,
		Timeout: cfg.DrugInfo.Timeout,
	}, logger)
	if metrics != nil {
		drugs.OnObserve(metrics.ObserveLookup)
	}

	return pipeline.New(logger, text, ents, records, cfg.Vision.RecordPolicy, drugs)
}

// NewResponder builds the chat model client from cfg.Chat.
func NewResponder(cfg *common.Config, logger *slog.Logger) *chat.ModelResponder {
	if cfg.Chat.APIKey == "" {
		logger.Warn("app.chat.disabled", "reason", "CHAT_API_KEY not set")
	}
	return chat.NewModelResponder(chat.ResponderConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		Timeout:     cfg.Chat.Timeout,
	}, logger)
}
