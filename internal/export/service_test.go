package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/repository"
)

func TestRecordsXLSX(t *testing.T) {
	store := repository.NewCSVStore(filepath.Join(t.TempDir(), "prescriptions.csv"), nil)
	ctx := context.Background()
	rec := entity.PrescriptionRecord{
		PatientName: "Jane Doe",
		Medications: []entity.Medication{{MedicineName: "Ibuprofen", Dosage: "400mg"}},
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := NewService(store, nil).RecordsXLSX(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][6] != "medications" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "Jane Doe" || rows[1][2] != repository.NA {
		t.Fatalf("unexpected row %v", rows[1])
	}
	if _, err := time.ParseInLocation(repository.TimestampLayout, rows[1][0], time.Local); err != nil {
		t.Fatalf("timestamp %q: %v", rows[1][0], err)
	}
}

func TestRecordsXLSXEmptyStore(t *testing.T) {
	store := repository.NewCSVStore(filepath.Join(t.TempDir(), "missing.csv"), nil)
	data, err := NewService(store, nil).RecordsXLSX(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(sheet)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
