package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/entity"
)

// Columns is the fixed column order of the persisted record log.
var Columns = []string{
	"timestamp",
	"patient_name",
	"patient_age",
	"doctor_name",
	"date",
	"diagnosis",
	"medications",
	"instructions",
}

const (
	// TimestampLayout is the local-time format of the timestamp column.
	TimestampLayout = "2006-01-02 15:04:05"
	// NA marks a missing value.
	NA = "N/A"

	medicationSep = "; "
	fieldSep      = " - "
)

// RecordStore is an append-only log of flattened prescription records.
type RecordStore interface {
	// Append persists one record. Failures are StoreErrors.
	Append(ctx context.Context, rec entity.PrescriptionRecord) error
	// ReadAll returns every row in insertion order, keyed by column name.
	ReadAll(ctx context.Context) ([]map[string]string, error)
	Close() error
}

// ToRow flattens rec into Columns order, stamped with now in local time.
func ToRow(rec entity.PrescriptionRecord, now time.Time) []string {
	return []string{
		now.Local().Format(TimestampLayout),
		orNA(rec.PatientName),
		orNA(rec.PatientAge),
		orNA(rec.DoctorName),
		orNA(rec.Date),
		orNA(rec.Diagnosis),
		FlattenMedications(rec.Medications),
		orNA(rec.Instructions),
	}
}

// FlattenMedications renders "name - dosage - frequency - duration" per entry
// joined by "; ". An empty list renders as "". Values are not escaped, so a
// field containing " - " or "; " does not survive SplitMedications.
func FlattenMedications(meds []entity.Medication) string {
	parts := make([]string, 0, len(meds))
	for _, m := range meds {
		parts = append(parts, strings.Join([]string{
			orNA(m.MedicineName),
			orNA(m.Dosage),
			orNA(m.Frequency),
			orNA(m.Duration),
		}, fieldSep))
	}
	return strings.Join(parts, medicationSep)
}

// SplitMedications reverses FlattenMedications. "N/A" sub-fields come back
// empty.
func SplitMedications(s string) []entity.Medication {
	out := []entity.Medication{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, entry := range strings.Split(s, medicationSep) {
		f := strings.SplitN(entry, fieldSep, 4)
		for len(f) < 4 {
			f = append(f, NA)
		}
		out = append(out, entity.Medication{
			MedicineName: fromNA(f[0]),
			Dosage:       fromNA(f[1]),
			Frequency:    fromNA(f[2]),
			Duration:     fromNA(f[3]),
		})
	}
	return out
}

func questionMark(int) string { return "?" }

func dollarN(i int) string { return fmt.Sprintf("$%d", i) }

// insertSQL builds the row insert with one placeholder per column; ph gets
// 1-based positions.
func insertSQL(ph func(i int) string) string {
	ps := make([]string, len(Columns))
	for i := range ps {
		ps[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO prescriptions (%s) VALUES (%s)",
		strings.Join(Columns, ", "), strings.Join(ps, ", "))
}

func selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM prescriptions ORDER BY id", strings.Join(Columns, ", "))
}

// scanRecord reads one selectSQL row through scan.
func scanRecord(scan func(dest ...any) error) (map[string]string, error) {
	vals := make([]string, len(Columns))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := scan(ptrs...); err != nil {
		return nil, err
	}
	return rowToMap(vals), nil
}

func rowToMap(row []string) map[string]string {
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		if i < len(row) {
			m[col] = row[i]
		} else {
			m[col] = ""
		}
	}
	return m
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}

func fromNA(s string) string {
	s = strings.TrimSpace(s)
	if s == NA {
		return ""
	}
	return s
}
