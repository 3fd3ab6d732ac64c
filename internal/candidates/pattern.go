package candidates

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/normalize"
)

// PatternScore is the fixed source-reliability score for regex candidates,
// reflecting observed precision rather than a learned weight.
const PatternScore = 0.6

// supplierWindow bounds the supplier search to the document head, where the
// issuing party's letterhead sits on business documents.
const supplierWindow = 500

type matchPolicy int

const (
	// firstMatch wins for header fields: they sit at the top of the document.
	firstMatch matchPolicy = iota
	// lastMatch wins for amount fields: on multi-total documents the later
	// total is more likely the grand total. Empirical policy, tunable.
	lastMatch
)

// amt matches a locale-formatted amount (grouping spaces, dots, decimal comma).
const amt = `(\d(?:[\d .,\x{00A0}\x{202F}]*\d)?)`

type patternSpec struct {
	field  constants.Field
	re     *regexp.Regexp
	kind   fields.Kind
	policy matchPolicy
	window int // leading byte window, 0 = whole text
	score  float64
}

var financialPatterns = []patternSpec{
	{constants.FieldHT, regexp.MustCompile(`(?i)\b(?:total\s+|montant\s+|prix\s+)?(?:h\.?t\.?|hors\s+taxes?)\s*:?\s*` + amt), fields.KindNumber, lastMatch, 0, PatternScore},
	{constants.FieldTTC, regexp.MustCompile(`(?i)\b(?:total\s+|montant\s+)?(?:t\.?t\.?c\.?|toutes\s+taxes(?:\s+comprises)?)\s*:?\s*` + amt), fields.KindNumber, lastMatch, 0, PatternScore},
	{constants.FieldTVAPct, regexp.MustCompile(`(?i)\btva\b[^%\n]{0,30}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%`), fields.KindPercent, lastMatch, 0, PatternScore},
	{constants.FieldTVAAmount, regexp.MustCompile(`(?i)\b(?:montant\s+)?tva(?:\s*\(?\s*\d{1,2}(?:[.,]\d{1,2})?\s*%\s*\)?)?\s*:?\s*` + amt + `\s*€`), fields.KindNumber, lastMatch, 0, PatternScore},
	{constants.FieldNetToPay, regexp.MustCompile(`(?i)\bnet\s+[àa]\s+payer\s*:?\s*` + amt), fields.KindNumber, lastMatch, 0, PatternScore},
	{constants.FieldInvoiceNumber, regexp.MustCompile(`(?i)\bfacture\s*(?:n\s*[°o]\s*)?:?\s*#?\s*([A-Z0-9][A-Z0-9/.-]{2,24})`), fields.KindText, firstMatch, 0, PatternScore},
}

var commonPatterns = []patternSpec{
	{constants.FieldSIRET, regexp.MustCompile(`\b(\d{3}[ .]?\d{3}[ .]?\d{3}[ .]?\d{5})\b`), fields.KindText, firstMatch, 0, PatternScore},
	{constants.FieldDocumentDate, regexp.MustCompile(`(?i)(?:\bdate\s*(?:de\s+facture|d.[ée]mission)?\s*:?\s*|\ble\s+)(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), fields.KindDate, firstMatch, 0, PatternScore},
	{constants.FieldDocumentDate, regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`), fields.KindDate, firstMatch, 0, PatternScore - 0.05},
	{constants.FieldSupplier, regexp.MustCompile(`(?m)^[ \t]*([A-ZÀ-Ü][\wÀ-ÿ&'. -]{2,60}?)[ \t]*$`), fields.KindText, firstMatch, supplierWindow, PatternScore},
}

var tenderPatterns = []patternSpec{
	{constants.FieldTenderDeadline, regexp.MustCompile(`(?i)date\s+limite(?:[^:\n]{0,60})?\s*:?\s*\D{0,20}?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), fields.KindDate, firstMatch, 0, PatternScore},
	{constants.FieldTenderBudget, regexp.MustCompile(`(?i)\b(?:budget|montant\s+estim[ée]|estimation)\b\D{0,30}?` + amt), fields.KindNumber, lastMatch, 0, PatternScore},
	{constants.FieldTenderReference, regexp.MustCompile(`(?i)\b(?:r[ée]f[ée]rence|n[°o]\s*(?:de\s+)?consultation|march[ée]\s+n[°o])\s*:?\s*([A-Z0-9][A-Z0-9/_.-]{2,30})`), fields.KindText, firstMatch, 0, PatternScore},
	{constants.FieldTenderAuthority, regexp.MustCompile(`(?i)\b(?:pouvoir\s+adjudicateur|acheteur\s+public|organisme)\s*:?\s*([^\n]{3,80})`), fields.KindText, firstMatch, 0, PatternScore},
}

// rePostalCity pairs a 5-digit postal code with the city name that follows it.
var rePostalCity = regexp.MustCompile(`\b(\d{5})\s+([A-ZÀ-Ü][A-Za-zÀ-ÿ' -]{2,40})`)

// Pattern generates candidates by scanning the raw text with one fixed
// pattern per field.
type Pattern struct {
	logger *slog.Logger
}

func NewPattern(logger *slog.Logger) *Pattern {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pattern{logger: logger}
}

func (g *Pattern) Generate(text string, module constants.Module) []fields.Candidate {
	if text == "" {
		return nil
	}
	specs := make([]patternSpec, 0, len(financialPatterns)+len(commonPatterns)+len(tenderPatterns))
	if module == constants.ModuleTender {
		specs = append(specs, tenderPatterns...)
	} else {
		specs = append(specs, financialPatterns...)
	}
	specs = append(specs, commonPatterns...)

	var out []fields.Candidate
	for _, spec := range specs {
		window := text
		if spec.window > 0 && len(text) > spec.window {
			window = text[:spec.window]
		}
		matches := spec.re.FindAllStringSubmatch(window, -1)
		if len(matches) == 0 {
			continue
		}
		var raw string
		if spec.policy == lastMatch {
			raw = matches[len(matches)-1][1]
		} else {
			raw = matches[0][1]
		}
		v := parseValue(spec.kind, raw)
		if v == nil {
			continue
		}
		out = append(out, fields.Candidate{Field: spec.field, Value: v, Score: spec.score, Source: fields.SourcePattern})
	}

	if module == constants.ModuleTender {
		if m := rePostalCity.FindStringSubmatch(text); m != nil {
			out = append(out,
				fields.Candidate{Field: constants.FieldTenderPostalCode, Value: fields.Text(m[1]), Score: PatternScore, Source: fields.SourcePattern},
				fields.Candidate{Field: constants.FieldTenderCity, Value: fields.Text(strings.TrimSpace(m[2])), Score: PatternScore, Source: fields.SourcePattern},
			)
		}
	}

	g.logger.Debug("pattern generator done", "candidates", len(out))
	return out
}

// parseValue converts a raw capture to a typed value, nil when unparsable.
func parseValue(kind fields.Kind, raw string) *fields.Value {
	switch kind {
	case fields.KindNumber:
		if f := normalize.Number(raw); f != nil {
			return fields.Number(*f)
		}
	case fields.KindPercent:
		if f := normalize.Percent(raw); f != nil && *f >= 0 && *f <= 100 {
			return fields.Percent(*f)
		}
	case fields.KindDate:
		if iso := normalize.Date(raw); iso != "" {
			return fields.Date(iso)
		}
	case fields.KindText:
		if s := strings.TrimSpace(raw); s != "" {
			return fields.Text(s)
		}
	}
	return nil
}
