package entity

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMedicineNamesSkipsEmpty(t *testing.T) {
	rec := PrescriptionRecord{Medications: []Medication{
		{MedicineName: "Amoxicillin"},
		{Dosage: "5ml"},
		{MedicineName: "Ibuprofen"},
	}}
	got := rec.MedicineNames()
	if len(got) != 2 || got[0] != "Amoxicillin" || got[1] != "Ibuprofen" {
		t.Fatalf("MedicineNames() = %v", got)
	}
}

func TestMedicationsAlwaysSerialized(t *testing.T) {
	b, err := json.Marshal(PrescriptionRecord{PatientName: "Jane Doe", Medications: []Medication{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"medications":[]`) {
		t.Fatalf("medications missing from %s", b)
	}
}
