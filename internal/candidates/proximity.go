package candidates

import (
	"log/slog"
	"math"
	"regexp"
	"sort"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/normalize"
)

// The recap/summary block empirically lives in the trailing portion of the
// document text, so the search window is restricted to its last 30%.
const summaryWindowRatio = 0.30

// Proximity candidate scores decay from ProximityMaxScore with the character
// distance between label and amount, floored at ProximityMinScore.
const (
	ProximityMaxScore = 0.80
	ProximityMinScore = 0.65
)

// reCurrencyAmount matches an amount immediately suffixed by the euro sign.
var reCurrencyAmount = regexp.MustCompile(amt + `\s*€`)

// reTVALabel optionally captures the printed rate ("TVA 20 %").
var reTVALabel = regexp.MustCompile(`(?i)\btva\b(?:\s*\(?\s*(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*\)?)?`)

var proximityLabels = []struct {
	field constants.Field
	re    *regexp.Regexp
}{
	{constants.FieldHT, regexp.MustCompile(`(?i)(?:total|montant|prix)\s+h\.?t\.?|\bht\b`)},
	{constants.FieldTTC, regexp.MustCompile(`(?i)(?:total|montant)\s+t\.?t\.?c\.?|\bttc\b`)},
	{constants.FieldNetToPay, regexp.MustCompile(`(?i)net\s+[àa]\s+payer`)},
}

type amountToken struct {
	index    int
	value    float64
	consumed bool
}

type labelHit struct {
	field constants.Field
	index int
}

// Proximity pairs summary-block labels with the nearest unclaimed
// currency-suffixed amount by absolute character distance. An amount claimed
// by one label is consumed and cannot satisfy another, so the same printed
// figure never feeds two fields.
type Proximity struct {
	logger *slog.Logger
}

func NewProximity(logger *slog.Logger) *Proximity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proximity{logger: logger}
}

func (g *Proximity) Generate(text string) []fields.Candidate {
	if text == "" {
		return nil
	}
	offset := int(float64(len(text)) * (1 - summaryWindowRatio))
	window := text[offset:]

	amounts := findAmounts(window)
	if len(amounts) == 0 {
		return nil
	}

	var labels []labelHit
	for _, l := range proximityLabels {
		if locs := l.re.FindAllStringIndex(window, -1); locs != nil {
			// keep the last occurrence: recap lines repeat body labels.
			// The end index is the anchor since the amount follows the label.
			labels = append(labels, labelHit{field: l.field, index: locs[len(locs)-1][1]})
		}
	}

	var out []fields.Candidate

	// TVA: the rate is printed inside the label itself; the nearest amount is
	// the tax amount line.
	if m := reTVALabel.FindAllStringSubmatchIndex(window, -1); m != nil {
		last := m[len(m)-1]
		labels = append(labels, labelHit{field: constants.FieldTVAAmount, index: last[1]})
		if last[2] >= 0 {
			if pct := normalize.Percent(window[last[2]:last[3]]); pct != nil && *pct >= 0 && *pct <= 100 {
				out = append(out, fields.Candidate{
					Field:  constants.FieldTVAPct,
					Value:  fields.Percent(*pct),
					Score:  ProximityMaxScore,
					Source: fields.SourceProximity,
				})
			}
		}
	}

	// Pair labels and amounts greedily by character distance, closest pair
	// first. Every assignment consumes both sides, so each label ends up with
	// its nearest amount still unclaimed.
	type pairing struct {
		label  int
		amount int
		dist   int
	}
	var pairs []pairing
	for li, l := range labels {
		for ai, a := range amounts {
			pairs = append(pairs, pairing{label: li, amount: ai, dist: abs(a.index - l.index)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })
	assigned := make([]bool, len(labels))
	for _, p := range pairs {
		if assigned[p.label] || amounts[p.amount].consumed {
			continue
		}
		assigned[p.label] = true
		amounts[p.amount].consumed = true
		out = append(out, fields.Candidate{
			Field:  labels[p.label].field,
			Value:  fields.Number(amounts[p.amount].value),
			Score:  distanceScore(p.dist),
			Source: fields.SourceProximity,
		})
	}

	g.logger.Debug("proximity generator done", "window_bytes", len(window), "amounts", len(amounts), "candidates", len(out))
	return out
}

func findAmounts(window string) []amountToken {
	var out []amountToken
	for _, m := range reCurrencyAmount.FindAllStringSubmatchIndex(window, -1) {
		raw := window[m[2]:m[3]]
		if f := normalize.Number(raw); f != nil {
			out = append(out, amountToken{index: m[0], value: *f})
		}
	}
	return out
}

// distanceScore maps label/amount character distance into the proximity
// score band: adjacent pairs score ProximityMaxScore, far pairs degrade to
// ProximityMinScore.
func distanceScore(dist int) float64 {
	penalty := (ProximityMaxScore - ProximityMinScore) * math.Min(1, float64(dist)/300)
	return ProximityMaxScore - penalty
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
