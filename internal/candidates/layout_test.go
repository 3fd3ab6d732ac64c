package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
)

func tok(text string, page int, x, y float64) fields.Token {
	return fields.Token{Text: text, Page: page, X0: x, Y0: y, X1: x + 40, Y1: y + 12}
}

func TestLayoutPairsLabelWithSameRowValue(t *testing.T) {
	g := NewLayout(nil)
	tokens := []fields.Token{
		tok("HT", 1, 50, 100),
		tok("1 000,00", 1, 200, 100),
		tok("TTC", 1, 50, 130),
		tok("1 200,00", 1, 200, 130),
	}

	cands := g.Generate(tokens)

	ht, ok := findCandidate(cands, constants.FieldHT)
	require.True(t, ok)
	assert.InDelta(t, 1000, ht.Value.Num, 1e-9)
	assert.Equal(t, fields.SourceLayout, ht.Source)
	assert.InDelta(t, LayoutScore, ht.Score, 1e-9)

	ttc, ok := findCandidate(cands, constants.FieldTTC)
	require.True(t, ok)
	assert.InDelta(t, 1200, ttc.Value.Num, 1e-9)
}

func TestLayoutPrefersSameRowOverDistantRow(t *testing.T) {
	g := NewLayout(nil)
	tokens := []fields.Token{
		tok("HT", 1, 50, 100),
		tok("1 000,00", 1, 150, 100), // same row
		tok("9 999,00", 1, 150, 160), // rows below
	}

	cands := g.Generate(tokens)

	ht, ok := findCandidate(cands, constants.FieldHT)
	require.True(t, ok)
	assert.InDelta(t, 1000, ht.Value.Num, 1e-9)
}

func TestLayoutTrailingColonOnLabel(t *testing.T) {
	g := NewLayout(nil)
	tokens := []fields.Token{
		tok("Date:", 1, 50, 100),
		tok("05/03/2024", 1, 150, 100),
	}

	cands := g.Generate(tokens)

	d, ok := findCandidate(cands, constants.FieldDocumentDate)
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", d.Value.Text)
}

func TestLayoutIgnoresOtherPages(t *testing.T) {
	g := NewLayout(nil)
	tokens := []fields.Token{
		tok("HT", 1, 50, 100),
		tok("1 000,00", 2, 60, 100),
	}

	assert.Empty(t, g.Generate(tokens))
}

func TestLayoutIgnoresValuesBeforeLabel(t *testing.T) {
	g := NewLayout(nil)
	tokens := []fields.Token{
		tok("1 000,00", 1, 50, 40), // above and left of the label
		tok("HT", 1, 200, 100),
	}

	assert.Empty(t, g.Generate(tokens))
}

func TestLayoutDistanceCap(t *testing.T) {
	g := NewLayout(nil)
	tokens := []fields.Token{
		tok("HT", 1, 50, 100),
		tok("1 000,00", 1, 50, 800), // far down the page
	}

	assert.Empty(t, g.Generate(tokens))
}
