package chat

import (
	"strings"

	"github.com/joseph-ayodele/mediscan/internal/entity"
)

// excerptRunes bounds the raw document text carried in the chat context.
const excerptRunes = 1000

// BuildContext assembles the document context the responder answers from.
func BuildContext(text, patientName string, diseases []string, meds []entity.MedicineInfo) string {
	pieces := []string{
		"Original document text: " + excerpt(text, excerptRunes) + "...",
		"Patient Name: " + patientName,
		"Detected Diseases/Conditions: " + strings.Join(diseases, ", "),
	}
	for _, m := range meds {
		name := m.DisplayName
		if name == "" {
			name = m.Name
		}
		pieces = append(pieces, "Medicine: "+name+", Function: "+m.Info)
	}
	return strings.Join(pieces, "\n")
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
