package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/common"
	"github.com/jarnaud/docfields/internal/engine"
	"github.com/jarnaud/docfields/internal/ocr"
	"github.com/jarnaud/docfields/internal/schema"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file    = flag.String("file", "", "document to extract fields from (required)")
		module  = flag.String("module", "invoice", "module hint: invoice|expense|tender|table")
		pretty  = flag.Bool("pretty", false, "indent the JSON output")
		timeout = flag.Duration("timeout", 2*time.Minute, "per-document processing timeout")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		printError("Error: read %s: %v\n", *file, err)
		os.Exit(1)
	}

	mod, known := constants.ParseModule(*module)
	if !known {
		logger.Warn("unknown module hint, falling back", "hint", *module, "module", string(mod))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	eng := buildEngine(cfg, logger)
	res := eng.Extract(ctx, engine.Request{Bytes: data, Filename: *file, Module: mod})

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(res, "", "  ")
	} else {
		out, err = json.Marshal(res)
	}
	if err != nil {
		printError("Error: marshal result: %v\n", err)
		os.Exit(1)
	}
	if err := schema.ValidateResultJSON(out); err != nil {
		logger.Error("result violates output contract", "error", err)
	}
	fmt.Println(string(out))
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
