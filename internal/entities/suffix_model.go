package entities

import (
	"context"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/mediscan/constants"
)

var reWord = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]*`)

// Common INN stems (WHO naming) that mark a word as a drug.
var drugStems = []string{
	"cillin", "mycin", "micin", "cycline", "floxacin", "cef", "azole", "prazole",
	"pril", "sartan", "olol", "dipine", "statin", "formin", "gliptin", "glitazone",
	"tidine", "setron", "triptan", "oxetine", "pam", "lam", "done", "profen",
	"vir", "mab", "nib", "sone", "lone", "caine", "parin", "semide", "thiazide",
}

var knownDrugs = map[string]struct{}{
	"paracetamol": {}, "acetaminophen": {}, "aspirin": {}, "ibuprofen": {},
	"insulin": {}, "morphine": {}, "codeine": {}, "warfarin": {}, "digoxin": {},
	"levothyroxine": {}, "cetirizine": {}, "loratadine": {}, "salbutamol": {},
	"albuterol": {}, "montelukast": {}, "clopidogrel": {}, "diclofenac": {},
}

var knownConditions = map[string]struct{}{
	"fever": {}, "asthma": {}, "diabetes": {}, "hypertension": {}, "migraine": {},
	"infection": {}, "pneumonia": {}, "influenza": {}, "anemia": {}, "anaemia": {},
	"allergy": {}, "cough": {}, "pain": {}, "headache": {}, "nausea": {},
	"depression": {}, "anxiety": {}, "insomnia": {}, "malaria": {}, "ulcer": {},
}

// SuffixModel is a rule-based EntityModel used when no NER service is
// configured. It tags words by drug stem or by a small condition lexicon.
type SuffixModel struct{}

func (SuffixModel) Recognize(_ context.Context, text string) ([]Span, error) {
	var spans []Span
	for _, loc := range reWord.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		lower := strings.ToLower(word)
		switch {
		case isDrugWord(lower):
			spans = append(spans, Span{Text: word, Label: constants.LabelChemical, Start: loc[0], End: loc[1]})
		case isConditionWord(lower):
			spans = append(spans, Span{Text: word, Label: constants.LabelDisease, Start: loc[0], End: loc[1]})
		}
	}
	return spans, nil
}

func isDrugWord(w string) bool {
	if _, ok := knownDrugs[w]; ok {
		return true
	}
	if len(w) < 6 {
		return false
	}
	for _, stem := range drugStems {
		if strings.HasSuffix(w, stem) || (stem == "cef" && strings.HasPrefix(w, stem)) {
			return true
		}
	}
	return false
}

func isConditionWord(w string) bool {
	if _, ok := knownConditions[w]; ok {
		return true
	}
	return len(w) > 5 && (strings.HasSuffix(w, "itis") || strings.HasSuffix(w, "emia"))
}
