package engine

import (
	"strings"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
)

// BaseConfidence is the fixed low prior: extraction without any corroborating
// signal is barely better than a guess.
const BaseConfidence = 0.30

// Bonuses are added independently, not multiplicatively. The overlap with
// arithmetic validity is intentional: a self-consistent total is the single
// strongest correctness signal available without ground truth.
const (
	bonusTotalsOK = 0.25
	bonusSIRET    = 0.10
	bonusDate     = 0.10
	bonusCurrency = 0.10
	bonusAmount   = 0.05
	bonusSupplier = 0.05
)

var amountFields = []constants.Field{
	constants.FieldHT,
	constants.FieldTTC,
	constants.FieldTVAAmount,
	constants.FieldNetToPay,
	constants.FieldTenderBudget,
}

// Confidence combines consistency and presence signals into one bounded
// score in [0,1]. Adding a signal never lowers the score.
func Confidence(set fields.Set, totalsOK bool, sourceText string) float64 {
	score := BaseConfidence
	if totalsOK {
		score += bonusTotalsOK
	}
	if _, ok := set.Str(constants.FieldSIRET); ok {
		score += bonusSIRET
	}
	if hasDate(set) {
		score += bonusDate
	}
	if strings.ContainsAny(sourceText, "€$£") {
		score += bonusCurrency
	}
	if hasAmount(set) {
		score += bonusAmount
	}
	if hasParty(set) {
		score += bonusSupplier
	}
	return clamp01(score)
}

func hasDate(set fields.Set) bool {
	if _, ok := set.Str(constants.FieldDocumentDate); ok {
		return true
	}
	_, ok := set.Str(constants.FieldTenderDeadline)
	return ok
}

func hasAmount(set fields.Set) bool {
	for _, f := range amountFields {
		if _, ok := set.Num(f); ok {
			return true
		}
	}
	return false
}

func hasParty(set fields.Set) bool {
	if _, ok := set.Str(constants.FieldSupplier); ok {
		return true
	}
	_, ok := set.Str(constants.FieldTenderAuthority)
	return ok
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
