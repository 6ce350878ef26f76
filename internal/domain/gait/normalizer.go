package gait

import (
	"regexp"
	"strconv"
	"strings"

	"asclepius/pkg/tabular"
)

// leadingDecimal matches the signed decimal prefix of an uncertainty cell,
// e.g. "12.4±0.31" -> "12.4"
var leadingDecimal = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)`)

// Normalizer rewrites a wearable export table into an all-numeric table.
//
// Column handling:
//   - fully numeric columns pass through unchanged, so cleaning an already
//     clean table is a no-op
//   - columns carrying "value±uncertainty" cells are reduced to the leading
//     signed decimal; cells whose prefix does not parse count as missing
//   - every other non-numeric column (identifiers, free text) is dropped
//
// Missing cells in surviving columns become "0". Callers keep key columns
// aside before cleaning.
type Normalizer struct{}

// NewNormalizer creates a Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Clean returns the normalized table. The input table is not modified.
func (n *Normalizer) Clean(t *tabular.Table) *tabular.Table {
	kept := make([]string, 0, len(t.Columns()))
	cleaned := make(map[string][]string)

	for _, col := range t.Columns() {
		cells, _ := t.Column(col)
		switch {
		case hasUncertainty(cells):
			kept = append(kept, col)
			cleaned[col] = stripUncertainty(cells)
		case allNumeric(cells):
			kept = append(kept, col)
			cleaned[col] = fillMissing(cells)
		default:
			// identifier or free-text column, dropped
		}
	}

	out := tabular.New(kept...)
	for r := 0; r < t.NumRows(); r++ {
		cells := make([]string, len(kept))
		for i, col := range kept {
			cells[i] = cleaned[col][r]
		}
		_ = out.AppendRow(cells...)
	}
	return out
}

// hasUncertainty reports whether any cell carries a ± annotation
func hasUncertainty(cells []string) bool {
	for _, c := range cells {
		if strings.Contains(c, "±") {
			return true
		}
	}
	return false
}

// allNumeric reports whether every non-empty cell parses as a plain float
func allNumeric(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err != nil {
			return false
		}
	}
	return true
}

// stripUncertainty reduces each cell to its leading signed decimal; cells
// without a parseable prefix are treated as missing and become "0"
func stripUncertainty(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		m := leadingDecimal.FindStringSubmatch(c)
		if m == nil {
			out[i] = "0"
			continue
		}
		out[i] = m[1]
	}
	return out
}

// fillMissing replaces empty cells with "0"
func fillMissing(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = "0"
			continue
		}
		out[i] = c
	}
	return out
}
