package normalize

import (
	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
)

// Plausible bounds for the ttc/ht ratio. Tax rates above 50% do not occur in
// this domain, so a ratio outside the window means the two amounts were read
// in swapped positions or one of them is wrong.
const (
	minTotalsRatio = 1.0
	maxTotalsRatio = 1.5
)

// Repair runs the arithmetic consistency pass over an arbitrated field set,
// in place, and returns the resulting totals_ok. The pass is idempotent.
//
// Whenever both ht and tva_pct are known, tva_amount and ttc are always
// recomputed from them and any directly-extracted tva_amount is discarded:
// a derived figure from two corroborated fields beats a directly-read one.
func Repair(set fields.Set) bool {
	completeMissing(set)

	// Plausibility guard on the ht/ttc pair.
	if ht, okHT := set.Num(constants.FieldHT); okHT {
		if ttc, okTTC := set.Num(constants.FieldTTC); okTTC && ht != 0 {
			ratio := ttc / ht
			if ratio < minTotalsRatio || ratio > maxTotalsRatio {
				if ht >= ttc {
					set[constants.FieldHT] = fields.Number(ttc)
					set[constants.FieldTTC] = fields.Number(ht)
				} else {
					set[constants.FieldTTC] = nil
				}
				completeMissing(set)
			}
		}
	}

	// Mandatory recomputation from the two most reliable fields.
	if ht, okHT := set.Num(constants.FieldHT); okHT {
		if pct, okPct := set.Num(constants.FieldTVAPct); okPct {
			set[constants.FieldTVAAmount] = fields.Number(ht * pct / 100)
			set[constants.FieldTTC] = fields.Number(ht * (1 + pct/100))
		}
	}

	return CheckTotals(numPtr(set, constants.FieldHT),
		numPtr(set, constants.FieldTVAPct),
		numPtr(set, constants.FieldTVAAmount),
		numPtr(set, constants.FieldTTC))
}

// completeMissing derives whichever of ht, tva_pct, ttc is absent from the
// other two. A derived rate outside the plausible ratio window is dropped,
// not clamped: deriving it from an implausible ht/ttc pair would launder the
// inconsistency the guard exists to catch.
func completeMissing(set fields.Set) {
	ht, okHT := set.Num(constants.FieldHT)
	pct, okPct := set.Num(constants.FieldTVAPct)
	ttc, okTTC := set.Num(constants.FieldTTC)

	switch {
	case okHT && okPct && !okTTC:
		set[constants.FieldTTC] = fields.Number(ht * (1 + pct/100))
	case okHT && okTTC && !okPct && ht != 0:
		derived := (ttc/ht - 1) * 100
		if derived >= 0 && derived <= (maxTotalsRatio-1)*100 {
			set[constants.FieldTVAPct] = fields.Percent(derived)
		}
	case okTTC && okPct && !okHT:
		set[constants.FieldHT] = fields.Number(ttc / (1 + pct/100))
	}
}

func numPtr(set fields.Set, f constants.Field) *float64 {
	if v, ok := set.Num(f); ok {
		return &v
	}
	return nil
}
