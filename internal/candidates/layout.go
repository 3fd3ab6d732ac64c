package candidates

import (
	"log/slog"
	"math"
	"strings"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/normalize"
)

// LayoutScore is the fixed source-reliability score for spatially paired
// candidates. Label/value pairing on real coordinates is the most precise
// text-based strategy available.
const LayoutScore = 0.8

// Vertical misalignment is weighted heavier than horizontal distance: a value
// belonging to a label sits on the same line or directly under it.
const verticalPenalty = 4.0

// maxPairDistance caps the weighted distance beyond which a label and a value
// are considered unrelated.
const maxPairDistance = 250.0

var layoutLabels = map[string]struct {
	field constants.Field
	kind  fields.Kind
}{
	"ht":      {constants.FieldHT, fields.KindNumber},
	"h.t.":    {constants.FieldHT, fields.KindNumber},
	"ttc":     {constants.FieldTTC, fields.KindNumber},
	"t.t.c.":  {constants.FieldTTC, fields.KindNumber},
	"tva":     {constants.FieldTVAAmount, fields.KindNumber},
	"date":    {constants.FieldDocumentDate, fields.KindDate},
	"siret":   {constants.FieldSIRET, fields.KindText},
	"facture": {constants.FieldInvoiceNumber, fields.KindText},
}

// Layout pairs label tokens with the nearest spatially co-located value token
// on the same page. Only available when the document has a recoverable layout.
type Layout struct {
	logger *slog.Logger
}

func NewLayout(logger *slog.Logger) *Layout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layout{logger: logger}
}

func (g *Layout) Generate(tokens []fields.Token) []fields.Candidate {
	if len(tokens) == 0 {
		return nil
	}
	var out []fields.Candidate
	for i, tok := range tokens {
		spec, ok := layoutLabels[strings.ToLower(strings.Trim(tok.Text, ":"))]
		if !ok {
			continue
		}
		value, dist := g.nearestValue(tokens, i, spec.kind)
		if value == nil || dist > maxPairDistance {
			continue
		}
		out = append(out, fields.Candidate{Field: spec.field, Value: value, Score: LayoutScore, Source: fields.SourceLayout})
	}
	g.logger.Debug("layout generator done", "tokens", len(tokens), "candidates", len(out))
	return out
}

// nearestValue finds the closest token on the label's page whose text parses
// to the wanted kind, preferring same-row tokens to the right or tokens below.
func (g *Layout) nearestValue(tokens []fields.Token, labelIdx int, kind fields.Kind) (*fields.Value, float64) {
	label := tokens[labelIdx]
	var best *fields.Value
	bestDist := math.MaxFloat64
	for j, tok := range tokens {
		if j == labelIdx || tok.Page != label.Page {
			continue
		}
		// values read left-to-right, top-to-bottom from their label
		if tok.CenterX() < label.CenterX() && tok.CenterY() <= label.Y1 {
			continue
		}
		v := parseTokenValue(kind, tok.Text)
		if v == nil {
			continue
		}
		dx := tok.CenterX() - label.CenterX()
		dy := tok.CenterY() - label.CenterY()
		dist := math.Abs(dx) + verticalPenalty*math.Abs(dy)
		if dist < bestDist {
			bestDist = dist
			best = v
		}
	}
	return best, bestDist
}

func parseTokenValue(kind fields.Kind, text string) *fields.Value {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "€"))
	switch kind {
	case fields.KindNumber:
		// a bare year or line number is not an amount
		if !strings.ContainsAny(text, ",.") && len(text) > 6 {
			return nil
		}
		if f := normalize.Number(text); f != nil {
			return fields.Number(*f)
		}
	case fields.KindDate:
		if iso := normalize.Date(text); iso != "" {
			return fields.Date(iso)
		}
	case fields.KindText:
		if s := strings.TrimSpace(text); s != "" && len(s) >= 3 {
			return fields.Text(s)
		}
	}
	return nil
}
