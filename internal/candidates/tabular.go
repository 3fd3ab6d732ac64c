package candidates

import (
	"log/slog"
	"strings"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/fields"
	"github.com/jarnaud/docfields/internal/normalize"
)

// TabularScore is the fixed source-reliability score for values read directly
// from spreadsheet cells.
const TabularScore = 0.8

var tabularHeaders = map[constants.Field][]string{
	constants.FieldHT:        {"ht", "total ht", "montant ht", "prix ht", "hors taxes"},
	constants.FieldTTC:       {"ttc", "total ttc", "montant ttc", "toutes taxes"},
	constants.FieldTVAAmount: {"tva", "montant tva"},
	constants.FieldTVAPct:    {"taux tva", "tva %", "% tva", "taux"},
	constants.FieldNetToPay:  {"net a payer", "net à payer"},
}

// Tabular infers HT/TTC figures from column or row semantics of spreadsheet
// and CSV input, without going through text patterns at all.
type Tabular struct {
	logger *slog.Logger
}

func NewTabular(logger *slog.Logger) *Tabular {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tabular{logger: logger}
}

func (g *Tabular) Generate(rows [][]string) []fields.Candidate {
	if len(rows) == 0 {
		return nil
	}
	out := g.fromColumns(rows)
	out = append(out, g.fromRowLabels(rows)...)
	g.logger.Debug("tabular generator done", "rows", len(rows), "candidates", len(out))
	return out
}

// fromColumns reads the header row and, per recognized column, takes the last
// numeric cell of that column: on totals columns the bottom row is the total.
func (g *Tabular) fromColumns(rows [][]string) []fields.Candidate {
	header := rows[0]
	var out []fields.Candidate
	for col, cell := range header {
		field, ok := matchHeader(cell)
		if !ok {
			continue
		}
		for r := len(rows) - 1; r >= 1; r-- {
			if col >= len(rows[r]) {
				continue
			}
			v := cellValue(field, rows[r][col])
			if v == nil {
				continue
			}
			out = append(out, fields.Candidate{Field: field, Value: v, Score: TabularScore, Source: fields.SourceTabular})
			break
		}
	}
	return out
}

// fromRowLabels handles recap-style sheets where the label sits in the first
// cell and the figure in a later cell of the same row.
func (g *Tabular) fromRowLabels(rows [][]string) []fields.Candidate {
	var out []fields.Candidate
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		field, ok := matchHeader(row[0])
		if !ok {
			continue
		}
		for _, cell := range row[1:] {
			v := cellValue(field, cell)
			if v == nil {
				continue
			}
			out = append(out, fields.Candidate{Field: field, Value: v, Score: TabularScore, Source: fields.SourceTabular})
			break
		}
	}
	return out
}

func matchHeader(cell string) (constants.Field, bool) {
	c := strings.ToLower(strings.TrimSpace(cell))
	c = strings.Trim(c, ":")
	c = strings.TrimSpace(c)
	for field, names := range tabularHeaders {
		for _, n := range names {
			if c == n {
				return field, true
			}
		}
	}
	return "", false
}

func cellValue(field constants.Field, cell string) *fields.Value {
	if field == constants.FieldTVAPct {
		if f := normalize.Percent(cell); f != nil && *f >= 0 && *f <= 100 {
			return fields.Percent(*f)
		}
		return nil
	}
	if f := normalize.Number(cell); f != nil {
		return fields.Number(*f)
	}
	return nil
}
