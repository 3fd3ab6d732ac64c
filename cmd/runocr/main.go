package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/common"
	"github.com/jarnaud/docfields/internal/ocr"
	"github.com/jarnaud/docfields/internal/trace"
)

// runocr runs acquisition only: classify, extract or recognize text, and
// dump the text plus the step trace. Debug utility for tuning OCR settings.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rec := trace.NewRecorder(logger)
	res := acq.Acquire(ctx, data, path, rec)

	logger.Info("acquisition done",
		"format", string(res.Format),
		"pages", res.Pages,
		"text_len", len(res.Text),
		"tokens", len(res.Tokens),
		"rows", len(res.Rows),
		"quality", ocr.Quality(res.Text),
	)
	for _, step := range rec.Steps() {
		logger.Info("step", "name", step.Step, "status", string(step.Status), "metrics", step.Metrics)
	}
	fmt.Println(res.Text)
}
