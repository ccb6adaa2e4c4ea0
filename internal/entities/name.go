package entities

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/mediscan/constants"
)

// The captured name stops at the end of its line.
var rePatientName = regexp.MustCompile(`(?i)(?:Patient Name|Patient|Name):\s*([A-Za-z \t]+)`)

// RegexNameExtractor takes the first "Patient Name:" / "Patient:" / "Name:" label.
type RegexNameExtractor struct{}

func (RegexNameExtractor) PatientName(text string) string {
	m := rePatientName.FindStringSubmatch(text)
	if m == nil {
		return constants.NotFound
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return constants.NotFound
	}
	return name
}
