package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

var recordKeys = map[string]struct{}{
	"patient_name": {}, "patient_age": {}, "doctor_name": {}, "date": {},
	"diagnosis": {}, "medications": {}, "instructions": {},
}

var medicationKeys = map[string]struct{}{
	"medicine_name": {}, "dosage": {}, "frequency": {}, "duration": {},
}

// NormalizeAndSanitizeJSON
// - Drops null / empty optional strings
// - Coerces numbers to strings (models like to emit "patient_age": 45)
// - Removes unknown keys
// - Drops medication entries without a medicine_name
// A null medications field becomes []. A missing one stays missing so the
// strict schema can still reject it.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	for k := range maps.Clone(m) {
		if _, ok := recordKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}
	for k := range recordKeys {
		if k == "medications" {
			continue
		}
		if reason := normalizeString(m, k); reason != "" {
			dropped = append(dropped, k+reason)
		}
	}

	if v, ok := m["medications"]; ok {
		items, _ := v.([]any)
		meds := make([]any, 0, len(items))
		for i, it := range items {
			med, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("medications[%d](type)", i))
				continue
			}
			for k := range maps.Clone(med) {
				if _, ok := medicationKeys[k]; !ok {
					delete(med, k)
				} else {
					normalizeString(med, k)
				}
			}
			if _, ok := med["medicine_name"]; !ok {
				dropped = append(dropped, fmt.Sprintf("medications[%d](no name)", i))
				continue
			}
			meds = append(meds, med)
		}
		m["medications"] = meds
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// normalizeString coerces m[k] to a trimmed string or deletes it. It returns
// a short reason when the key was dropped.
func normalizeString(m map[string]any, k string) string {
	v, ok := m[k]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			return "(empty)"
		}
		m[k] = s
	case float64:
		m[k] = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		m[k] = strconv.FormatBool(t)
	case nil:
		delete(m, k)
		return "(null)"
	default:
		delete(m, k)
		return "(type)"
	}
	return ""
}
