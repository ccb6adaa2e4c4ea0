package entities

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/mediscan/constants"
)

// Extractor combines a NameExtractor with an EntityModel.
type Extractor struct {
	names  NameExtractor
	model  EntityModel
	logger *slog.Logger
}

func NewExtractor(names NameExtractor, model EntityModel, logger *slog.Logger) *Extractor {
	if names == nil {
		names = RegexNameExtractor{}
	}
	if model == nil {
		model = SuffixModel{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{names: names, model: model, logger: logger}
}

// Extract never fails: a model error is logged and yields no spans.
func (x *Extractor) Extract(ctx context.Context, text string) Entities {
	start := time.Now()
	out := Entities{
		PatientName: x.names.PatientName(text),
		Medicines:   []string{},
		Diseases:    []string{},
	}

	spans, err := x.model.Recognize(ctx, text)
	if err != nil {
		x.logger.Warn("entities.model_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		spans = nil
	}

	meds := map[string]struct{}{}
	diseases := map[string]struct{}{}
	for _, s := range spans {
		switch s.Label {
		case constants.LabelChemical:
			if name, ok := AcceptMedicine(s.Text); ok {
				meds[name] = struct{}{}
			}
		case constants.LabelDisease:
			if name, ok := AcceptDisease(s.Text); ok {
				diseases[name] = struct{}{}
			}
		}
	}
	out.Medicines = sortedKeys(meds)
	out.Diseases = sortedKeys(diseases)

	x.logger.Info("entities.ok",
		"patient_found", out.PatientName != constants.NotFound,
		"spans", len(spans),
		"medicines", len(out.Medicines),
		"diseases", len(out.Diseases),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// AcceptMedicine lower-cases and trims a CHEMICAL span. It is kept when longer
// than 3 characters and made only of letters, digits and spaces.
func AcceptMedicine(span string) (string, bool) {
	name := strings.TrimSpace(strings.ToLower(span))
	if utf8.RuneCountInString(name) <= 3 {
		return "", false
	}
	for _, r := range name {
		if r != ' ' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", false
		}
	}
	return name, true
}

// AcceptDisease trims a DISEASE span and keeps it when longer than 3 characters.
func AcceptDisease(span string) (string, bool) {
	name := strings.TrimSpace(span)
	if utf8.RuneCountInString(name) <= 3 {
		return "", false
	}
	return name, true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
