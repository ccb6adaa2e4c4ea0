package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/druginfo"
	"github.com/joseph-ayodele/mediscan/internal/entities"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/llm"
)

// Record sources reported in Analysis.RecordSource.
const (
	SourceVision   = "vision"
	SourceEntities = "entities"
)

// EntityExtractor is satisfied by *entities.Extractor.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) entities.Entities
}

// Analysis is everything learned from one document.
type Analysis struct {
	Document     extract.Document
	Text         string
	Method       string
	Pages        int
	Entities     entities.Entities
	Record       entity.PrescriptionRecord
	RecordSource string
	MedicineInfo []entity.MedicineInfo
	Context      string
	Warnings     []string
}

// Processor runs text extraction, entity extraction, record extraction,
// drug lookup and context assembly in that order. It does not persist.
type Processor struct {
	Logger *slog.Logger
	Text   *TextStage
	Record *RecordStage
	Drugs  druginfo.Looker
}

func NewProcessor(logger *slog.Logger, text *TextStage, record *RecordStage, drugs druginfo.Looker) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Record: record, Drugs: drugs}
}

// New wires the stages from their collaborators. records may be nil when no
// vision model is configured.
func New(logger *slog.Logger, tx extract.TextExtractor, ents EntityExtractor, records llm.RecordExtractor, policy string, drugs druginfo.Looker) *Processor {
	return NewProcessor(logger,
		NewTextStage(tx, ents, logger),
		NewRecordStage(records, policy, logger),
		drugs,
	)
}

// Analyze fails only with an ExtractionError: unreadable text, or a vision
// failure under the strict record policy. An image whose text cannot be read
// still reaches the vision model; it fails on the text error only when no
// vision record comes back.
func (p *Processor) Analyze(ctx context.Context, doc extract.Document) (*Analysis, error) {
	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)
	p.Logger.Info("processor.analyze.start", "req_id", reqID, "name", doc.Name, "format", doc.Format())

	// 1) text + entities
	a, textErr := p.Text.Run(ctx, doc)
	if textErr != nil {
		if !p.Record.UsesVision(doc) {
			p.Logger.Error("processor.text.failed", "req_id", reqID, "err", textErr)
			return nil, textErr
		}
		p.Logger.Warn("processor.text.skipped", "req_id", reqID, "name", doc.Name, "err", textErr)
		a = &Analysis{
			Document: doc,
			Entities: entities.Entities{PatientName: constants.NotFound, Medicines: []string{}, Diseases: []string{}},
			Warnings: []string{"text extraction failed: " + textErr.Error()},
		}
	}

	// 2) structured record
	rec, source, err := p.Record.Run(ctx, doc, a.Entities)
	if err != nil {
		p.Logger.Error("processor.record.failed", "req_id", reqID, "err", err)
		return nil, err
	}
	if textErr != nil && source != SourceVision {
		p.Logger.Error("processor.text.failed", "req_id", reqID, "err", textErr)
		return nil, textErr
	}
	a.Record = rec
	a.RecordSource = source

	// 3) drug info per unique medicine
	for _, name := range medicineNames(a.Entities, rec) {
		info := druginfo.Fallback
		if p.Drugs != nil {
			info = p.Drugs.Lookup(ctx, name)
		}
		a.MedicineInfo = append(a.MedicineInfo, entity.MedicineInfo{
			Name:        name,
			DisplayName: capitalize(name),
			Info:        info,
		})
	}

	// 4) chat context
	patient := a.Entities.PatientName
	if rec.PatientName != "" && source == SourceVision {
		patient = rec.PatientName
	}
	a.Context = chat.BuildContext(a.Text, patient, a.Entities.Diseases, a.MedicineInfo)

	p.Logger.Info("processor.analyze.ok",
		"req_id", reqID,
		"method", a.Method,
		"record_source", a.RecordSource,
		"medicines", len(a.MedicineInfo),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}
