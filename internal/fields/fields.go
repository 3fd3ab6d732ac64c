package fields

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/trace"
)

// Kind discriminates the typed value variants a field can hold.
type Kind int

const (
	KindNumber Kind = iota + 1
	KindPercent
	KindDate
	KindText
)

// Value is a typed field value. Exactly one representation is meaningful
// depending on Kind: Num for numbers and percentages, Text for dates
// (ISO YYYY-MM-DD) and free text.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

func Number(v float64) *Value  { return &Value{Kind: KindNumber, Num: v} }
func Percent(v float64) *Value { return &Value{Kind: KindPercent, Num: v} }
func Date(iso string) *Value   { return &Value{Kind: KindDate, Text: iso} }
func Text(s string) *Value     { return &Value{Kind: KindText, Text: s} }

// MarshalJSON serializes numbers and percentages as JSON numbers, dates and
// text as strings.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber, KindPercent:
		return json.Marshal(round2(v.Num))
	case KindDate, KindText:
		return json.Marshal(v.Text)
	default:
		return nil, fmt.Errorf("unknown value kind: %d", v.Kind)
	}
}

func round2(f float64) float64 {
	if f >= 0 {
		return float64(int64(f*100+0.5)) / 100
	}
	return float64(int64(f*100-0.5)) / 100
}

// Source identifies the extraction strategy a candidate came from.
type Source int

const (
	SourcePattern Source = iota + 1
	SourceProximity
	SourceLayout
	SourceTabular
)

func (s Source) String() string {
	switch s {
	case SourcePattern:
		return "pattern"
	case SourceProximity:
		return "proximity"
	case SourceLayout:
		return "layout"
	case SourceTabular:
		return "tabular"
	default:
		return "unknown"
	}
}

// Priority is the arbitration tie-break order: layout/tabular > proximity > pattern.
func (s Source) Priority() int {
	switch s {
	case SourceLayout, SourceTabular:
		return 3
	case SourceProximity:
		return 2
	case SourcePattern:
		return 1
	default:
		return 0
	}
}

// Candidate is a proposed value for a field from one extraction strategy,
// prior to arbitration. Candidates are never mutated, only compared.
type Candidate struct {
	Field  constants.Field
	Value  *Value
	Score  float64
	Source Source
}

// Token is a positioned word from a document with a recoverable layout.
// Coordinates are in the page's native units.
type Token struct {
	Text string
	Page int
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
}

func (t Token) CenterX() float64 { return (t.X0 + t.X1) / 2 }
func (t Token) CenterY() float64 { return (t.Y0 + t.Y1) / 2 }

// Set maps each field to its single arbitrated value, nil when absent.
type Set map[constants.Field]*Value

func NewSet() Set {
	return make(Set, len(constants.AllFields))
}

// Num returns the numeric value of f when present and number-like.
func (s Set) Num(f constants.Field) (float64, bool) {
	v := s[f]
	if v == nil || (v.Kind != KindNumber && v.Kind != KindPercent) {
		return 0, false
	}
	return v.Num, true
}

// Str returns the textual value of f when present and text-like.
func (s Set) Str(f constants.Field) (string, bool) {
	v := s[f]
	if v == nil || (v.Kind != KindDate && v.Kind != KindText) {
		return "", false
	}
	return v.Text, true
}

// MarshalJSON emits every known field key, null when absent, so the
// downstream consumers see a stable shape regardless of module.
func (s Set) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(constants.AllFields))
	for _, f := range constants.AllFields {
		if v := s[f]; v != nil {
			m[string(f)] = v
		} else {
			m[string(f)] = nil
		}
	}
	return json.Marshal(m)
}

// ExtractionResult is the engine's sole output, immutable once returned.
type ExtractionResult struct {
	RunID      uuid.UUID          `json:"run_id"`
	Module     constants.Module   `json:"module"`
	FieldSet   Set                `json:"field_set"`
	Confidence float64            `json:"confidence"`
	TotalsOK   bool               `json:"totals_ok"`
	Trace      []trace.StepRecord `json:"trace"`
}
