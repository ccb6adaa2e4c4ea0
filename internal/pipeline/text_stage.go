package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/mediscan/internal/extract"
)

type TextStage struct {
	TextExtractor extract.TextExtractor
	Entities      EntityExtractor
	Logger        *slog.Logger
}

func NewTextStage(tx extract.TextExtractor, ents EntityExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{TextExtractor: tx, Entities: ents, Logger: logger}
}

// Run extracts the document text and the entities found in it.
func (s *TextStage) Run(ctx context.Context, doc extract.Document) (*Analysis, error) {
	res, err := s.TextExtractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		s.Logger.Warn("processor.text.warning", "name", doc.Name, "warning", w)
	}
	return &Analysis{
		Document: doc,
		Text:     res.Text,
		Method:   res.Method,
		Pages:    res.Pages,
		Entities: s.Entities.Extract(ctx, res.Text),
		Warnings: res.Warnings,
	}, nil
}
