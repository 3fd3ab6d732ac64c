package engine

import (
	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
)

// Arbitrate selects, per field, the single best candidate from the shared
// pool: highest score wins, ties broken by source priority
// (layout/tabular > proximity > pattern). A field with zero candidates stays
// null, which is a normal, non-error outcome.
func Arbitrate(pool []fields.Candidate) fields.Set {
	best := make(map[constants.Field]fields.Candidate, len(pool))
	for _, c := range pool {
		if c.Value == nil {
			continue
		}
		cur, ok := best[c.Field]
		if !ok || c.Score > cur.Score ||
			(c.Score == cur.Score && c.Source.Priority() > cur.Source.Priority()) {
			best[c.Field] = c
		}
	}
	set := fields.NewSet()
	for f, c := range best {
		set[f] = c.Value
	}
	return set
}
