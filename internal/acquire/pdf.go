package acquire

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/trace"
)

func (a *Acquirer) acquirePDF(ctx context.Context, data []byte, rec *trace.Recorder) Result {
	path, cleanup, err := writeTemp(data, "doc-*.pdf")
	if err != nil {
		rec.Add("pdf", trace.StatusFailed, "error", err.Error())
		return Result{}
	}
	defer cleanup()

	pages, err := api.PageCountFile(path)
	if err != nil {
		rec.Add("pdf.validate", trace.StatusFailed, "error", err.Error())
		return Result{}
	}
	if a.cfg.MaxPages > 0 && pages > a.cfg.MaxPages {
		rec.Add("pdf.validate", trace.StatusPartial, "pages", pages, "max_pages", a.cfg.MaxPages)
	} else {
		rec.Add("pdf.validate", trace.StatusSuccess, "pages", pages)
	}

	// Try the text layer first; recognition is only for image-only PDFs.
	text, err := a.pdfToText(ctx, path)
	if err == nil && len(strings.TrimSpace(text)) >= a.cfg.MinTextLen {
		tokens, berr := a.pdfBBoxTokens(ctx, path)
		if berr != nil {
			rec.Add("pdf.bbox", trace.StatusFailed, "error", berr.Error())
		} else {
			rec.Add("pdf.bbox", trace.StatusSuccess, "tokens", len(tokens))
		}
		rec.Add("pdf.text-layer", trace.StatusSuccess, "text_len", len(text))
		return Result{Text: text, Tokens: tokens, Pages: pages}
	}
	rec.Add("pdf.text-layer", trace.StatusNoMatch, "text_len", len(strings.TrimSpace(text)))

	// Image-only: rasterize each page, then multi-pass recognition.
	images, err := a.pdfToImages(ctx, path)
	if err != nil {
		rec.Add("pdf.render", trace.StatusFailed, "error", err.Error())
		return Result{Pages: pages}
	}
	rec.Add("pdf.render", trace.StatusSuccess, "pages", len(images.paths), "dpi", a.cfg.DPI)
	defer images.cleanup()

	var b strings.Builder
	for _, img := range images.paths {
		txt := a.pool.RecognizeBest(ctx, img, rec)
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return Result{Text: b.String(), Pages: len(images.paths)}
}

func (a *Acquirer) pdfToText(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := a.runner.Run(ctx, a.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, string(errb))
	}
	return string(out), nil
}

var (
	rePageOpen = regexp.MustCompile(`<page\b`)
	reBBoxWord = regexp.MustCompile(`<word xMin="([\d.]+)" yMin="([\d.]+)" xMax="([\d.]+)" yMax="([\d.]+)">([^<]*)</word>`)
)

// pdfBBoxTokens extracts positioned word tokens from pdftotext's bbox output.
func (a *Acquirer) pdfBBoxTokens(ctx context.Context, path string) ([]fields.Token, error) {
	out, errb, err := a.runner.Run(ctx, a.cfg.Pdftotext, "-bbox", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext -bbox: %w: %s", err, string(errb))
	}
	return parseBBox(string(out)), nil
}

func parseBBox(doc string) []fields.Token {
	var tokens []fields.Token
	pageStarts := rePageOpen.FindAllStringIndex(doc, -1)
	pageAt := func(pos int) int {
		p := 0
		for i, s := range pageStarts {
			if s[0] <= pos {
				p = i
			}
		}
		return p
	}
	for _, m := range reBBoxWord.FindAllStringSubmatchIndex(doc, -1) {
		grp := func(i int) string { return doc[m[2*i] : m[2*i+1]] }
		x0, _ := strconv.ParseFloat(grp(1), 64)
		y0, _ := strconv.ParseFloat(grp(2), 64)
		x1, _ := strconv.ParseFloat(grp(3), 64)
		y1, _ := strconv.ParseFloat(grp(4), 64)
		text := strings.TrimSpace(html.UnescapeString(grp(5)))
		if text == "" {
			continue
		}
		tokens = append(tokens, fields.Token{Text: text, Page: pageAt(m[0]), X0: x0, Y0: y0, X1: x1, Y1: y1})
	}
	return tokens
}

type renderedPages struct {
	paths   []string
	cleanup func()
}

func (a *Acquirer) pdfToImages(ctx context.Context, path string) (renderedPages, error) {
	tmpDir, err := os.MkdirTemp("", "docfields-pp-*")
	if err != nil {
		return renderedPages{}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := a.runner.Run(ctx, a.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", a.cfg.DPI), "-png", path, prefix)
	if err != nil {
		cleanup()
		return renderedPages{}, fmt.Errorf("pdftoppm: %w: %s", err, string(errb))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if a.cfg.MaxPages > 0 && len(matches) > a.cfg.MaxPages {
		matches = matches[:a.cfg.MaxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return renderedPages{}, fmt.Errorf("pdftoppm produced no images")
	}
	return renderedPages{paths: matches, cleanup: cleanup}, nil
}
