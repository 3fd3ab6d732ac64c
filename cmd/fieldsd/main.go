package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/common"
	"github.com/jarnaud/docfields/internal/engine"
	"github.com/jarnaud/docfields/internal/ocr"
	"github.com/jarnaud/docfields/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := buildEngine(cfg, logger)
	srv := server.New(eng, cfg.Server, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
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
