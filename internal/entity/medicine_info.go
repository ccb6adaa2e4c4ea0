package entity

// MedicineInfo is the drug-label summary for one detected medicine.
type MedicineInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Info        string `json:"info"`
}
