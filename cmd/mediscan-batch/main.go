package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/app"
	"github.com/joseph-ayodele/mediscan/internal/async"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/export"
	"github.com/joseph-ayodele/mediscan/internal/ingest"
	"github.com/joseph-ayodele/mediscan/internal/observability"
	repo "github.com/joseph-ayodele/mediscan/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of prescription documents (required)")
		out        = flag.String("out", "", "output XLSX path (optional)")
		exts       = flag.String("ext", "", "comma separated extensions to include (default: all supported)")
		workers    = flag.Int("workers", 4, "concurrent analyses")
		timeout    = flag.Duration("timeout", 3*time.Minute, "per-document timeout")
		skipHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.Server.LogFormat)
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := repo.OpenRecordStore(ctx, cfg, logger)
	if err != nil {
		printError("Error: open record store: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	var include []string
	if *exts != "" {
		include = strings.Split(*exts, ",")
	}
	files, stats, err := ingest.CollectDirectory(*dir, include, *skipHidden)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("batch.collected", "scanned", stats.Scanned, "matched", stats.Matched, "duplicates", stats.Deduplicated, "failed", stats.Failed)

	metrics := observability.NewMetrics("mediscan_batch")
	queue := async.NewAnalysisQueue(app.NewProcessor(cfg, metrics, logger), store, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(*timeout),
		async.WithOnDone(func(j entity.AnalysisJob) {
			metrics.BatchJobs.WithLabelValues(string(j.Status)).Inc()
		}),
	)
	for _, f := range files {
		if f.Err != "" || f.Deduplicated {
			continue
		}
		if _, err := queue.Enqueue(ctx, async.Job{Path: f.Path}); err != nil {
			logger.Error("batch.enqueue_failed", "path", f.Path, "error", err)
		}
	}
	queue.Shutdown(ctx)

	if totals, err := metrics.CounterTotals(); err != nil {
		logger.Warn("batch.metrics_failed", "error", err)
	} else {
		keys := make([]string, 0, len(totals))
		for k := range totals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			logger.Info("batch.metric", "name", k, "value", totals[k])
		}
	}

	var ok, failed int
	for _, j := range queue.Jobs() {
		if j.Status == constants.JobStatusSucceeded {
			ok++
			continue
		}
		failed++
		printError("failed: %s: %s\n", j.Path, j.ErrorMessage)
	}

	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "prescriptions.xlsx")
	}
	data, err := export.NewService(store, logger).RecordsXLSX(ctx)
	if err != nil {
		printError("Error: export: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Analyzed %d documents (%d failed). Records exported to %s\n", ok, failed, *out)
	if failed > 0 {
		os.Exit(2)
	}
}
