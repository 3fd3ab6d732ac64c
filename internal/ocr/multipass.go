package ocr

import (
	"context"
	"unicode"

	"github.com/jarnaud/docfields/internal/trace"
)

// passVariant is one layout assumption a recognition pass runs under.
type passVariant struct {
	name string
	psm  int
}

// Passes are attempted in order; receipts and invoices are usually a uniform
// block, so that variant tends to early-exit first.
var passVariants = []passVariant{
	{name: "uniform-block", psm: 6},
	{name: "sparse-text", psm: 11},
	{name: "auto", psm: 3},
}

// RecognizeBest runs up to len(passVariants) recognition passes over one
// image and keeps the highest-quality output, exiting early once a pass
// clears the quality threshold. A failing pass is recorded and excluded from
// comparison, never fatal. Always returns some text, possibly empty.
func (p *Pool) RecognizeBest(ctx context.Context, imagePath string, rec *trace.Recorder) string {
	best := ""
	bestQuality := -1.0
	for _, variant := range passVariants {
		text, err := p.recognize(ctx, imagePath, variant.psm)
		if err != nil {
			rec.Add("ocr."+variant.name, trace.StatusFailed, "error", err.Error())
			continue
		}
		q := Quality(text)
		rec.Add("ocr."+variant.name, trace.StatusSuccess, "quality", q, "text_len", len(text))
		if q > bestQuality {
			best = text
			bestQuality = q
		}
		if q >= p.cfg.QualityThreshold {
			break
		}
	}
	return best
}

// Quality is a cheap text-quality proxy: the ratio of alphanumeric runes to
// total output length. Garbage recognition output is symbol soup.
func Quality(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	total := 0
	alnum := 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	return float64(alnum) / float64(total)
}
