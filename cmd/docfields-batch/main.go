package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/batch"
	"github.com/jarnaud/docfields/internal/common"
	"github.com/jarnaud/docfields/internal/engine"
	"github.com/jarnaud/docfields/internal/ocr"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to process documents from (required)")
		out     = flag.String("out", "", "output XLSX file path (defaults to parent directory)")
		module  = flag.String("module", "invoice", "module hint: invoice|expense|tender|table")
		workers = flag.Int("workers", 0, "worker count (defaults to BATCH_WORKERS)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(2)
	}
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "docfields.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}

	mod, known := constants.ParseModule(*module)
	if !known {
		logger.Warn("unknown module hint, falling back", "hint", *module, "module", string(mod))
	}

	files, stats, err := batch.CollectFiles(*dir)
	if err != nil {
		printError("Error: scan %s: %v\n", *dir, err)
		os.Exit(1)
	}
	logger.Info("directory scanned", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped)
	if len(files) == 0 {
		printError("Error: no supported documents under %s\n", *dir)
		os.Exit(1)
	}

	eng := buildEngine(cfg, logger)
	queue := batch.NewQueue(eng, logger,
		batch.WithWorkers(*workers),
		batch.WithQueueSize(cfg.Batch.QueueSize),
		batch.WithProcessTimeout(cfg.Batch.Timeout),
	)

	ctx := context.Background()
	for _, path := range files {
		_ = queue.Enqueue(ctx, batch.Job{Path: path, Module: mod})
	}

	drainCtx, cancel := context.WithTimeout(ctx, time.Duration(len(files))*cfg.Batch.Timeout)
	queue.Shutdown(drainCtx)
	cancel()

	results := queue.Results()
	if err := batch.WriteResultsXLSX(results, *out, logger); err != nil {
		printError("Error: export results: %v\n", err)
		os.Exit(1)
	}
	logger.Info("batch complete", "files", len(results), "out", *out)
}

func buildEngine(cfg *common.Config, logger *slog.Logger) *engine.Engine {
	runner := ocr.NewExecRunner()
	pool := ocr.NewPool(ocr.Config{
		Tesseract:        cfg.OCR.Tesseract,
		Lang:             cfg.OCR.Lang,
		TessdataDir:      cfg.OCR.TessdataDir,
		PoolSize:         cfg.OCR.PoolSize,
		QualityThreshold: cfg.OCR.QualityThreshold,
	}, runner, logger)
	acq := acquire.New(acquire.Config{
		Pdftotext:  cfg.Acquire.Pdftotext,
		Pdftoppm:   cfg.Acquire.Pdftoppm,
		DPI:        cfg.Acquire.DPI,
		MaxPages:   cfg.Acquire.MaxPages,
		MinTextLen: cfg.Acquire.MinTextLen,
	}, runner, pool, logger)
	return engine.New(acq, logger)
}
