package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/app"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/extract"
)

// analyze runs the full pipeline on one document and prints the result as
// JSON without persisting it.
func main() {
	logger := app.NewLogger(os.Stderr, "text")
	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "analyze <path-to-document>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	p := app.NewProcessor(cfg, nil, logger)
	start := time.Now()
	a, err := p.Analyze(ctx, extract.Document{Name: filepath.Base(path), Path: path})
	if err != nil {
		logger.Error("analysis failed", "path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"method":        a.Method,
		"pages":         a.Pages,
		"entities":      a.Entities,
		"record":        a.Record,
		"record_source": a.RecordSource,
		"medicine_info": a.MedicineInfo,
		"context":       a.Context,
		"warnings":      a.Warnings,
	}); err != nil {
		logger.Error("encode", "error", err)
		os.Exit(1)
	}
}
