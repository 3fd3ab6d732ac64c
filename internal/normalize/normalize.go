package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TotalsTolerance is the relative tolerance used when comparing a predicted
// total against an extracted one.
const TotalsTolerance = 0.02

var reDate = regexp.MustCompile(`^\s*(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\s*$`)

// Number converts a locale-formatted amount string to a float.
// It strips currency symbols and spacing, removes dots used as thousands
// separators and converts a trailing decimal comma to a dot.
// Returns nil when the input is not a number.
func Number(s string) *float64 {
	cleaned := stripAmountNoise(s)
	if cleaned == "" {
		return nil
	}
	cleaned = dropThousandsDots(cleaned)
	cleaned = decimalCommaToDot(cleaned)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Percent parses a percentage string ("20", "5,5", "20 %"). The [0,100]
// plausibility bound is the caller's concern, not enforced here.
func Percent(s string) *float64 {
	return Number(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")))
}

// Date parses D/M/Y or D-M-Y with a 2- or 4-digit year into ISO YYYY-MM-DD.
// Two-digit years are assumed to be in the 2000s. Returns "" on no match.
func Date(s string) string {
	m := reDate.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1000 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// CheckTotals reports whether the amounts of a field set are arithmetically
// consistent: whichever two of {ht, tva_pct, tva_amount} are available are
// used to predict the remaining figure, which must match the extracted value
// within TotalsTolerance. Insufficient fields yield false.
func CheckTotals(ht, tvaPct, tvaAmount, ttc *float64) bool {
	switch {
	case ht != nil && tvaPct != nil:
		if ttc != nil {
			return approxEqual(*ht*(1+*tvaPct/100), *ttc)
		}
		if tvaAmount != nil {
			return approxEqual(*ht**tvaPct/100, *tvaAmount)
		}
		return false
	case ht != nil && tvaAmount != nil:
		if ttc != nil {
			return approxEqual(*ht+*tvaAmount, *ttc)
		}
		return false
	case tvaPct != nil && tvaAmount != nil && *tvaPct > 0:
		if ttc != nil {
			predictedHT := *tvaAmount * 100 / *tvaPct
			return approxEqual(predictedHT+*tvaAmount, *ttc)
		}
		return false
	default:
		return false
	}
}

func approxEqual(predicted, extracted float64) bool {
	if extracted == 0 {
		return math.Abs(predicted) < 1e-9
	}
	return math.Abs(predicted-extracted) <= TotalsTolerance*math.Abs(extracted)
}

// stripAmountNoise drops currency symbols and every flavor of space.
func stripAmountNoise(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '€', '$', '£', ' ', '\t', ' ', ' ', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dropThousandsDots removes each '.' followed by exactly 3 digits and then a
// non-digit or end of string, so true decimals ("1234.56") survive.
func dropThousandsDots(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && i+4 <= len(s) && isDigits(s[i+1:i+4]) {
			if i+4 == len(s) || !isDigit(s[i+4]) {
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// decimalCommaToDot converts a trailing ",d" or ",dd" to a decimal point.
func decimalCommaToDot(s string) string {
	idx := strings.LastIndexByte(s, ',')
	if idx < 0 {
		return s
	}
	frac := s[idx+1:]
	if len(frac) >= 1 && len(frac) <= 2 && isDigits(frac) {
		return s[:idx] + "." + frac
	}
	return s
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
