package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
)

func TestArbitrateHighestScoreWins(t *testing.T) {
	pool := []fields.Candidate{
		{Field: constants.FieldHT, Value: fields.Number(500), Score: 0.6, Source: fields.SourcePattern},
		{Field: constants.FieldHT, Value: fields.Number(1000), Score: 0.8, Source: fields.SourceLayout},
	}

	set := Arbitrate(pool)

	v, ok := set.Num(constants.FieldHT)
	require.True(t, ok)
	assert.InDelta(t, 1000, v, 1e-9)
}

func TestArbitrateTieBrokenBySourcePriority(t *testing.T) {
	pool := []fields.Candidate{
		{Field: constants.FieldTTC, Value: fields.Number(999), Score: 0.7, Source: fields.SourcePattern},
		{Field: constants.FieldTTC, Value: fields.Number(1200), Score: 0.7, Source: fields.SourceProximity},
	}

	set := Arbitrate(pool)

	v, ok := set.Num(constants.FieldTTC)
	require.True(t, ok)
	assert.InDelta(t, 1200, v, 1e-9)
}

func TestArbitrateIndependentFields(t *testing.T) {
	pool := []fields.Candidate{
		{Field: constants.FieldHT, Value: fields.Number(1000), Score: 0.6, Source: fields.SourcePattern},
		{Field: constants.FieldSIRET, Value: fields.Text("12345678900012"), Score: 0.6, Source: fields.SourcePattern},
	}

	set := Arbitrate(pool)

	_, ok := set.Num(constants.FieldHT)
	assert.True(t, ok)
	s, ok := set.Str(constants.FieldSIRET)
	assert.True(t, ok)
	assert.Equal(t, "12345678900012", s)
	assert.Nil(t, set[constants.FieldTTC])
}

func TestArbitrateEmptyPool(t *testing.T) {
	set := Arbitrate(nil)
	for _, f := range constants.AllFields {
		assert.Nil(t, set[f], "field %s", f)
	}
}

func TestArbitrateSkipsNilValues(t *testing.T) {
	pool := []fields.Candidate{
		{Field: constants.FieldHT, Value: nil, Score: 0.9, Source: fields.SourceLayout},
		{Field: constants.FieldHT, Value: fields.Number(1000), Score: 0.6, Source: fields.SourcePattern},
	}

	set := Arbitrate(pool)

	v, ok := set.Num(constants.FieldHT)
	require.True(t, ok)
	assert.InDelta(t, 1000, v, 1e-9)
}
