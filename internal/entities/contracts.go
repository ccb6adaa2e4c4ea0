package entities

import (
	"context"

	"github.com/joseph-ayodele/mediscan/constants"
)

// Span is a labelled slice of text reported by an EntityModel.
type Span struct {
	Text  string                `json:"text"`
	Label constants.EntityLabel `json:"label"`
	Start int                   `json:"start"`
	End   int                   `json:"end"`
}

// NameExtractor finds the patient name in free text. It returns
// constants.NotFound when nothing matches.
type NameExtractor interface {
	PatientName(text string) string
}

// EntityModel recognises chemical and disease mentions.
type EntityModel interface {
	Recognize(ctx context.Context, text string) ([]Span, error)
}

// Entities is the best-effort result of Extractor.Extract.
type Entities struct {
	PatientName string   `json:"patient_name"`
	Medicines   []string `json:"medicines"`
	Diseases    []string `json:"diseases"`
}
