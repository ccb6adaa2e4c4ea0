package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
)

// CSVStore appends rows to a comma-separated file. The header is written only
// when the file is created.
type CSVStore struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVStore{path: path, now: time.Now, logger: logger}
}

func (s *CSVStore) Append(_ context.Context, rec entity.PrescriptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return s.fail("create directory", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return s.fail("open log", err)
	}
	defer func(f *os.File) {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("records.csv.close_error", "path", s.path, "error", cerr)
		}
	}(f)

	st, err := f.Stat()
	if err != nil {
		return s.fail("stat log", err)
	}
	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return s.fail("write header", err)
		}
	}
	if err := w.Write(ToRow(rec, s.now())); err != nil {
		return s.fail("write row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return s.fail("flush", err)
	}
	s.logger.Info("records.csv.appended", "path", s.path, "medications", len(rec.Medications))
	return nil
}

// ReadAll returns an empty slice when the log does not exist yet.
func (s *CSVStore) ReadAll(_ context.Context) ([]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, s.fail("open log", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, s.fail("read header", err)
	}
	if len(header) != len(Columns) {
		return nil, s.fail("read header", fmt.Errorf("unexpected columns %v", header))
	}

	rows := []map[string]string{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, s.fail("read row", err)
		}
		rows = append(rows, rowToMap(row))
	}
	return rows, nil
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) fail(op string, err error) error {
	s.logger.Error("records.csv.failed", "op", op, "path", s.path, "error", err)
	return common.StoreError(op, err)
}
