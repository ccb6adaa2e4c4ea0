package entity

// Medication is one prescribed medicine.
type Medication struct {
	MedicineName string `json:"medicine_name,omitempty"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// PrescriptionRecord is the structured form of a prescription.
// Medications is always present, possibly empty.
type PrescriptionRecord struct {
	PatientName  string       `json:"patient_name,omitempty"`
	PatientAge   string       `json:"patient_age,omitempty"`
	DoctorName   string       `json:"doctor_name,omitempty"`
	Date         string       `json:"date,omitempty"`
	Diagnosis    string       `json:"diagnosis,omitempty"`
	Medications  []Medication `json:"medications"`
	Instructions string       `json:"instructions,omitempty"`
}

// MedicineNames returns the non-empty medicine names in record order.
func (r PrescriptionRecord) MedicineNames() []string {
	names := make([]string, 0, len(r.Medications))
	for _, m := range r.Medications {
		if m.MedicineName != "" {
			names = append(names, m.MedicineName)
		}
	}
	return names
}
