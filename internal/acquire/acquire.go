package acquire

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/ocr"
	"github.com/jarnaud/docfields/internal/trace"
)

type Config struct {
	Pdftotext  string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm   string // binary name or absolute path; if empty -> "pdftoppm"
	DPI        int    // rasterization DPI for scanned PDFs, default 300
	MaxPages   int    // 0 = no limit
	MinTextLen int    // below this the PDF text layer counts as absent, default 32
}

// Result is what acquisition hands to the candidate generators. Tokens are
// only present for text-bearing PDFs; Rows only for tabular input.
type Result struct {
	Format constants.Format
	Text   string
	Tokens []fields.Token
	Rows   [][]string
	Pages  int
}

// Acquirer classifies input modality and drives per-page text acquisition.
// It never returns an error: acquisition failures degrade to an empty Result
// with a failed trace record.
type Acquirer struct {
	cfg    Config
	runner ocr.Runner
	pool   *ocr.Pool
	logger *slog.Logger
}

func New(cfg Config, runner ocr.Runner, pool *ocr.Pool, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.NewExecRunner()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 32
	}
	return &Acquirer{cfg: cfg, runner: runner, pool: pool, logger: logger}
}

func (a *Acquirer) Acquire(ctx context.Context, data []byte, filename string, rec *trace.Recorder) Result {
	format := a.classify(data, filename)
	if format == "" {
		rec.Add("classify", trace.StatusFailed, "bytes", len(data), "filename", filename)
		return Result{}
	}
	rec.Add("classify", trace.StatusSuccess, "format", string(format), "bytes", len(data))

	var res Result
	switch format {
	case constants.TXT:
		res = Result{Format: format, Text: string(data), Pages: 1}
	case constants.CSV:
		res = a.acquireCSV(data, rec)
	case constants.XLSX:
		res = a.acquireXLSX(data, rec)
	case constants.PDF:
		res = a.acquirePDF(ctx, data, rec)
	case constants.IMAGE:
		res = a.acquireImage(ctx, data, filename, rec)
	}
	res.Format = format

	if res.Text == "" && len(res.Rows) == 0 {
		rec.Add("acquire", trace.StatusNoMatch, "format", string(format))
	} else {
		rec.Add("acquire", trace.StatusSuccess, "text_len", len(res.Text), "rows", len(res.Rows), "tokens", len(res.Tokens))
	}
	return res
}

// classify resolves the modality from the filename extension, falling back to
// content sniffing when the extension is unknown.
func (a *Acquirer) classify(data []byte, filename string) constants.Format {
	if f := constants.MapExtToFormat(filepath.Ext(filename)); f != "" {
		return f
	}
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return constants.PDF
	case bytes.HasPrefix(data, []byte("\x89PNG")), bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return constants.IMAGE
	case utf8.Valid(data) && len(data) > 0:
		return constants.TXT
	default:
		return ""
	}
}

func (a *Acquirer) acquireCSV(data []byte, rec *trace.Recorder) Result {
	rows, err := parseCSV(data)
	if err != nil {
		rec.Add("csv", trace.StatusFailed, "error", err.Error())
		return Result{}
	}
	return Result{Rows: rows, Text: serializeRows(rows), Pages: 1}
}

func (a *Acquirer) acquireXLSX(data []byte, rec *trace.Recorder) Result {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		rec.Add("xlsx", trace.StatusFailed, "error", err.Error())
		return Result{}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.logger.Warn("close xlsx", "error", cerr)
		}
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		rec.Add("xlsx", trace.StatusFailed, "error", "workbook has no sheets")
		return Result{}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		rec.Add("xlsx", trace.StatusFailed, "error", err.Error())
		return Result{}
	}
	return Result{Rows: rows, Text: serializeRows(rows), Pages: 1}
}

func (a *Acquirer) acquireImage(ctx context.Context, data []byte, filename string, rec *trace.Recorder) Result {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if ext == "" {
		ext = "png"
	}
	path, cleanup, err := writeTemp(data, "image-*."+ext)
	if err != nil {
		rec.Add("image", trace.StatusFailed, "error", err.Error())
		return Result{}
	}
	defer cleanup()

	text := a.pool.RecognizeBest(ctx, path, rec)
	return Result{Text: text, Pages: 1}
}

// writeTemp persists the payload for the external binaries, which only take
// file paths. cleanup is safe to call on every path.
func writeTemp(data []byte, pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", "docfields-"+pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close temp: %w", err)
	}
	return path, cleanup, nil
}
