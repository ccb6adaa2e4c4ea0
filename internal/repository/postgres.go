package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS prescriptions (
	id           BIGSERIAL PRIMARY KEY,
	timestamp    TEXT NOT NULL,
	patient_name TEXT NOT NULL,
	patient_age  TEXT NOT NULL,
	doctor_name  TEXT NOT NULL,
	date         TEXT NOT NULL,
	diagnosis    TEXT NOT NULL,
	medications  TEXT NOT NULL,
	instructions TEXT NOT NULL
)`

// PostgresStore keeps the record log in a Postgres table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *slog.Logger
}

// NewPostgresStore ensures the table exists. The caller owns the pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, common.StoreError("create postgres schema", err)
	}
	return &PostgresStore{pool: pool, now: time.Now, logger: logger}, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec entity.PrescriptionRecord) error {
	row := ToRow(rec, s.now())
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	if _, err := s.pool.Exec(ctx, insertSQL(dollarN), args...); err != nil {
		s.logger.Error("records.postgres.append_failed", "error", err)
		return common.StoreError("insert record", err)
	}
	return nil
}

func (s *PostgresStore) ReadAll(ctx context.Context) ([]map[string]string, error) {
	rows, err := s.pool.Query(ctx, selectSQL())
	if err != nil {
		return nil, common.StoreError("query records", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (map[string]string, error) {
		return scanRecord(r.Scan)
	})
	if err != nil {
		return nil, common.StoreError("scan records", err)
	}
	if out == nil {
		out = []map[string]string{}
	}
	return out, nil
}

// Close is a no-op; the pool is closed by its owner.
func (s *PostgresStore) Close() error { return nil }
