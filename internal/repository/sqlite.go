package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS prescriptions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp    TEXT NOT NULL,
	patient_name TEXT NOT NULL,
	patient_age  TEXT NOT NULL,
	doctor_name  TEXT NOT NULL,
	date         TEXT NOT NULL,
	diagnosis    TEXT NOT NULL,
	medications  TEXT NOT NULL,
	instructions TEXT NOT NULL
)`

// SQLiteStore keeps the record log in an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and ensures the table.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.StoreError("open sqlite", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, common.StoreError("create sqlite schema", err)
	}
	logger.Info("records.sqlite.ready", "path", path)
	return &SQLiteStore{db: db, now: time.Now, logger: logger}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec entity.PrescriptionRecord) error {
	row := ToRow(rec, s.now())
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	if _, err := s.db.ExecContext(ctx, insertSQL(questionMark), args...); err != nil {
		s.logger.Error("records.sqlite.append_failed", "error", err)
		return common.StoreError("insert record", err)
	}
	return nil
}

func (s *SQLiteStore) ReadAll(ctx context.Context) ([]map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL())
	if err != nil {
		return nil, common.StoreError("query records", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	out := []map[string]string{}
	for rows.Next() {
		m, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, common.StoreError("scan record", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreError("iterate records", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

