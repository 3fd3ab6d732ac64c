package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
)

func TestConfidenceEmptySetIsBase(t *testing.T) {
	got := Confidence(fields.NewSet(), false, "")
	assert.InDelta(t, BaseConfidence, got, 1e-9)
}

func TestConfidenceSignalsAccumulate(t *testing.T) {
	set := fields.NewSet()
	base := Confidence(set, false, "")

	set[constants.FieldHT] = fields.Number(1000)
	withAmount := Confidence(set, false, "")
	assert.Greater(t, withAmount, base)

	set[constants.FieldSIRET] = fields.Text("12345678900012")
	withSIRET := Confidence(set, false, "")
	assert.Greater(t, withSIRET, withAmount)

	set[constants.FieldDocumentDate] = fields.Date("2024-03-05")
	withDate := Confidence(set, false, "")
	assert.Greater(t, withDate, withSIRET)

	withTotals := Confidence(set, true, "")
	assert.Greater(t, withTotals, withDate)

	withCurrency := Confidence(set, true, "Total TTC 1 200,00 €")
	assert.Greater(t, withCurrency, withTotals)
}

func TestConfidenceBounded(t *testing.T) {
	set := fields.NewSet()
	set[constants.FieldHT] = fields.Number(1000)
	set[constants.FieldTTC] = fields.Number(1200)
	set[constants.FieldSIRET] = fields.Text("12345678900012")
	set[constants.FieldSupplier] = fields.Text("ACME")
	set[constants.FieldDocumentDate] = fields.Date("2024-03-05")
	set[constants.FieldTenderBudget] = fields.Number(50000)

	got := Confidence(set, true, "€")
	assert.LessOrEqual(t, got, 1.0)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestConfidenceTenderFieldsCount(t *testing.T) {
	set := fields.NewSet()
	set[constants.FieldTenderDeadline] = fields.Date("2024-09-15")
	set[constants.FieldTenderAuthority] = fields.Text("Ville de Lyon")
	set[constants.FieldTenderBudget] = fields.Number(250000)

	got := Confidence(set, false, "")
	want := BaseConfidence + bonusDate + bonusSupplier + bonusAmount
	assert.InDelta(t, want, got, 1e-9)
}
