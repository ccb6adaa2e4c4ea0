package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entities"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/llm"
)

type RecordStage struct {
	Extractor llm.RecordExtractor
	Policy    string // common.RecordPolicyStrict | common.RecordPolicyPartial
	Logger    *slog.Logger
}

func NewRecordStage(rx llm.RecordExtractor, policy string, logger *slog.Logger) *RecordStage {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = common.RecordPolicyStrict
	}
	return &RecordStage{Extractor: rx, Policy: policy, Logger: logger}
}

// UsesVision reports whether Run will ask the vision model for doc.
func (s *RecordStage) UsesVision(doc extract.Document) bool {
	return s.Extractor != nil && doc.Format() == constants.IMAGE
}

// Run asks the vision model for images when one is configured; everything
// else gets a record derived from the entities.
func (s *RecordStage) Run(ctx context.Context, doc extract.Document, ents entities.Entities) (entity.PrescriptionRecord, string, error) {
	if !s.UsesVision(doc) {
		return FromEntities(ents), SourceEntities, nil
	}

	name := doc.Name
	if name == "" {
		name = doc.Path
	}
	rec, _, err := s.Extractor.ExtractRecord(ctx, llm.ExtractRequest{
		ImagePath: doc.Path,
		MimeType:  constants.MimeForExt(filepath.Ext(name)),
	})
	if err == nil {
		return rec, SourceVision, nil
	}
	if s.Policy != common.RecordPolicyPartial {
		if !common.IsKind(err, common.KindExtraction) {
			err = common.ExtractionError("record extraction", err)
		}
		return entity.PrescriptionRecord{}, "", err
	}
	s.Logger.Warn("processor.record.fallback", "name", doc.Name, "err", err)
	return FromEntities(ents), SourceEntities, nil
}

// FromEntities builds a record with the patient name and one name-only
// medication per detected medicine.
func FromEntities(ents entities.Entities) entity.PrescriptionRecord {
	rec := entity.PrescriptionRecord{Medications: make([]entity.Medication, 0, len(ents.Medicines))}
	if ents.PatientName != constants.NotFound {
		rec.PatientName = ents.PatientName
	}
	for _, m := range ents.Medicines {
		rec.Medications = append(rec.Medications, entity.Medication{MedicineName: capitalize(m)})
	}
	return rec
}

// medicineNames merges entity medicines with record medicines, lower-cased
// and deduplicated, keeping first-seen order.
func medicineNames(ents entities.Entities, rec entity.PrescriptionRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(n string) {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, m := range ents.Medicines {
		add(m)
	}
	for _, m := range rec.MedicineNames() {
		add(m)
	}
	return out
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
