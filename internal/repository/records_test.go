package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

func sampleRecords() []entity.PrescriptionRecord {
	return []entity.PrescriptionRecord{
		{
			PatientName: "Jane Doe",
			PatientAge:  "45",
			DoctorName:  "Dr. Smith",
			Date:        "2024-03-01",
			Diagnosis:   "Strep throat",
			Medications: []entity.Medication{
				{MedicineName: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Duration: "10 days"},
				{MedicineName: "Ibuprofen", Frequency: "as needed"},
			},
			Instructions: "Take with food, finish the course",
		},
		{PatientName: "John Roe", Medications: []entity.Medication{}},
	}
}

func TestFlattenMedications(t *testing.T) {
	got := FlattenMedications(sampleRecords()[0].Medications)
	want := "Amoxicillin - 500mg - 3x daily - 10 days; Ibuprofen - N/A - as needed - N/A"
	if got != want {
		t.Fatalf("FlattenMedications() = %q, want %q", got, want)
	}
	if FlattenMedications(nil) != "" {
		t.Fatal("empty list should flatten to an empty string")
	}
}

func TestSplitMedicationsRoundTrip(t *testing.T) {
	meds := sampleRecords()[0].Medications
	back := SplitMedications(FlattenMedications(meds))
	if !reflect.DeepEqual(back, meds) {
		t.Fatalf("round trip = %+v, want %+v", back, meds)
	}
	if got := SplitMedications(""); len(got) != 0 || got == nil {
		t.Fatalf("SplitMedications(\"\") = %#v", got)
	}
}

func TestToRowFillsNA(t *testing.T) {
	row := ToRow(entity.PrescriptionRecord{PatientName: "A"}, fixedNow)
	want := []string{"2024-03-09 14:05:07", "A", "N/A", "N/A", "N/A", "N/A", "", "N/A"}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("ToRow() = %q, want %q", row, want)
	}
}

func TestCSVStoreAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "prescriptions.csv")
	s := NewCSVStore(path, quiet())
	s.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	for _, rec := range sampleRecords() {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("file has %d lines, want header + 2", len(all))
	}
	if !reflect.DeepEqual(all[0], Columns) {
		t.Fatalf("header = %v", all[0])
	}

	rows, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["patient_name"] != "Jane Doe" || rows[1]["patient_name"] != "John Roe" {
		t.Fatalf("order = %q, %q", rows[0]["patient_name"], rows[1]["patient_name"])
	}
	if rows[0]["timestamp"] != "2024-03-09 14:05:07" {
		t.Fatalf("timestamp = %q", rows[0]["timestamp"])
	}
	if rows[0]["instructions"] != "Take with food, finish the course" {
		t.Fatalf("instructions = %q", rows[0]["instructions"])
	}
	if rows[1]["doctor_name"] != NA || rows[1]["medications"] != "" {
		t.Fatalf("second row = %v", rows[1])
	}

	var names []string
	for _, m := range SplitMedications(rows[0]["medications"]) {
		names = append(names, m.MedicineName)
	}
	if !reflect.DeepEqual(names, sampleRecords()[0].MedicineNames()) {
		t.Fatalf("medicine names = %v", names)
	}
}

func TestCSVStoreReopenDoesNotRepeatHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := NewCSVStore(path, quiet()).Append(ctx, sampleRecords()[1]); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(b), "timestamp,patient_name"); n != 1 {
		t.Fatalf("header written %d times", n)
	}
}

func TestCSVStoreMissingFileReadsEmpty(t *testing.T) {
	rows, err := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"), quiet()).ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestCSVStoreAppendFailureIsStoreError(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be
	path := filepath.Join(dir, "taken")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	err := NewCSVStore(path, quiet()).Append(context.Background(), sampleRecords()[1])
	if !common.IsKind(err, common.KindStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "rx.db"), quiet())
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer s.Close()
	s.now = func() time.Time { return fixedNow }

	if rows, err := s.ReadAll(ctx); err != nil || len(rows) != 0 {
		t.Fatalf("empty ReadAll() = %v, %v", rows, err)
	}
	for _, rec := range sampleRecords() {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	rows, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(rows) != 2 || rows[0]["patient_name"] != "Jane Doe" || rows[1]["patient_age"] != NA {
		t.Fatalf("rows = %v", rows)
	}
	if len(rows[0]) != len(Columns) {
		t.Fatalf("row keys = %v", rows[0])
	}
}

func TestOpenRecordStoreCSV(t *testing.T) {
	cfg := &common.Config{}
	cfg.Records.Backend = common.BackendCSV
	cfg.Records.CSVPath = filepath.Join(t.TempDir(), "x.csv")
	s, cleanup, err := OpenRecordStore(context.Background(), cfg, quiet())
	if err != nil {
		t.Fatalf("OpenRecordStore() error: %v", err)
	}
	defer cleanup()
	if _, ok := s.(*CSVStore); !ok {
		t.Fatalf("store = %T", s)
	}
}

func TestSplitMedicationsSeparatorInValue(t *testing.T) {
	meds := []entity.Medication{{MedicineName: "Vitamin B - Complex", Dosage: "1 tab"}}
	flat := FlattenMedications(meds)
	if flat != "Vitamin B - Complex - 1 tab - N/A - N/A" {
		t.Fatalf("FlattenMedications() = %q", flat)
	}
	back := SplitMedications(flat)
	if len(back) != 1 || back[0].MedicineName != "Vitamin B" || back[0].Dosage != "Complex" || back[0].Duration != "N/A - N/A" {
		t.Fatalf("SplitMedications() = %+v", back)
	}
}

func TestInsertSQLPlaceholders(t *testing.T) {
	cols := strings.Join(Columns, ", ")
	pg := insertSQL(dollarN)
	if want := "INSERT INTO prescriptions (" + cols + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"; pg != want {
		t.Fatalf("postgres insert = %q, want %q", pg, want)
	}
	lite := insertSQL(questionMark)
	if want := "INSERT INTO prescriptions (" + cols + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"; lite != want {
		t.Fatalf("sqlite insert = %q, want %q", lite, want)
	}
	if sel := selectSQL(); sel != "SELECT "+cols+" FROM prescriptions ORDER BY id" {
		t.Fatalf("select = %q", sel)
	}
}

func TestScanRecord(t *testing.T) {
	row := ToRow(sampleRecords()[0], fixedNow)
	m, err := scanRecord(func(dest ...any) error {
		if len(dest) != len(row) {
			t.Fatalf("scan got %d destinations, want %d", len(dest), len(row))
		}
		for i, d := range dest {
			*d.(*string) = row[i]
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scanRecord() error: %v", err)
	}
	if m["patient_name"] != "Jane Doe" || m["medications"] != row[6] || m["timestamp"] != "2024-03-09 14:05:07" {
		t.Fatalf("scanRecord() = %v", m)
	}

	boom := errors.New("conn reset")
	if _, err := scanRecord(func(...any) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("scanRecord() error = %v, want %v", err, boom)
	}
}
