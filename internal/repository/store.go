package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/common"
)

// OpenRecordStore builds the RecordStore selected by cfg.Records.Backend.
// The returned cleanup releases every resource the store holds.
func OpenRecordStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (RecordStore, func(), error) {
	switch cfg.Records.Backend {
	case common.BackendCSV, "":
		s := NewCSVStore(cfg.Records.CSVPath, logger)
		return s, func() {}, nil
	case common.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.Records.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("close sqlite", "error", err)
			}
		}, nil
	case common.BackendPostgres:
		pool, err := Open(ctx, Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, nil, common.StoreError("open postgres", err)
		}
		if err := HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
			pool.Close()
			return nil, nil, common.StoreError("ping postgres", err)
		}
		s, err := NewPostgresStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, func() { Close(pool, logger) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown records backend %q", cfg.Records.Backend)
	}
}
