package llm

import "sort"

// SchemaName is the structured-output name sent with every vision request.
const SchemaName = "prescription_extraction"

// BuildPrescriptionJSONSchema returns the JSON-Schema as a generic map.
// We pass it to the model as a structured output constraint and also use it
// locally to validate. With requireFields false the same shape is returned
// without "required", which is how partial records are accepted.
func BuildPrescriptionJSONSchema(requireFields bool) map[string]any {
	medication := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"medicine_name": map[string]any{"type": "string"},
			"dosage":        map[string]any{"type": "string"},
			"frequency":     map[string]any{"type": "string"},
			"duration":      map[string]any{"type": "string"},
		},
	}
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"patient_name": map[string]any{"type": "string"},
			"patient_age":  map[string]any{"type": "string"},
			"doctor_name":  map[string]any{"type": "string"},
			"date":         map[string]any{"type": "string"},
			"diagnosis":    map[string]any{"type": "string"},
			"medications": map[string]any{
				"type":  "array",
				"items": medication,
			},
			"instructions": map[string]any{"type": "string"},
		},
	}
	if requireFields {
		schema["required"] = []string{"patient_name", "medications"}
	}
	return schema
}

// StrictWireSchema rewrites a schema into the form strict structured outputs
// accept: every object lists all of its properties as required, and the ones
// that were optional become nullable. Nulls are dropped again by
// NormalizeAndSanitizeJSON before local validation.
func StrictWireSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out["items"] = StrictWireSchema(items)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return out
	}
	required := map[string]struct{}{}
	if req, ok := schema["required"].([]string); ok {
		for _, k := range req {
			required[k] = struct{}{}
		}
	}
	newProps := make(map[string]any, len(props))
	keys := make([]string, 0, len(props))
	for k, p := range props {
		pm, _ := p.(map[string]any)
		pm = StrictWireSchema(pm)
		if _, ok := required[k]; !ok {
			pm = nullable(pm)
		}
		newProps[k] = pm
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out["properties"] = newProps
	out["required"] = keys
	return out
}

func nullable(prop map[string]any) map[string]any {
	t, ok := prop["type"].(string)
	if !ok {
		return prop
	}
	prop["type"] = []string{t, "null"}
	return prop
}
