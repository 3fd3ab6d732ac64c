package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

type Config struct {
	Tesseract        string // binary name or absolute path; if empty -> "tesseract"
	Lang             string // default "fra+eng"
	TessdataDir      string
	PoolSize         int     // max concurrent recognition engines, default 2
	QualityThreshold float64 // early-exit threshold for multi-pass, default 0.70
}

// engine is one reusable recognition instance. It carries no state between
// runs besides its identity; configuration happens per call.
type engine struct {
	id int
}

// Pool is a bounded pool of recognition engines. Every recognition call
// acquires an engine, configures it for the requested layout-assumption
// variant, runs, and releases it on all exit paths.
type Pool struct {
	cfg     Config
	runner  Runner
	logger  *slog.Logger
	engines chan *engine
}

func NewPool(cfg Config, runner Runner, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "fra+eng"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 2
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 0.70
	}
	p := &Pool{cfg: cfg, runner: runner, logger: logger, engines: make(chan *engine, cfg.PoolSize)}
	for i := 0; i < cfg.PoolSize; i++ {
		p.engines <- &engine{id: i + 1}
	}
	return p
}

// recognize runs one pass over the image with the given page-segmentation
// mode, blocking until an engine is free.
func (p *Pool) recognize(ctx context.Context, imagePath string, psm int) (string, error) {
	var e *engine
	select {
	case e = <-p.engines:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { p.engines <- e }()

	args := []string{imagePath, "stdout", "-l", p.cfg.Lang, "--psm", strconv.Itoa(psm)}
	if p.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", p.cfg.TessdataDir)
	}
	out, errb, err := p.runner.Run(ctx, p.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract (engine %d, psm %d): %w: %s", e.id, psm, err, truncate(string(errb), 512))
	}
	return string(out), nil
}
