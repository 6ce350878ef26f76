package gait

import (
	"io"
	"math/rand"
	"strconv"
	"strings"

	"asclepius/internal/domain/features"
	"asclepius/pkg/errors"
	"asclepius/pkg/tabular"
)

// Cohort is a cleaned wearable table: numeric feature vectors keyed by
// subject, plus the ordered rows used as background draws in single-patient
// simulation.
type Cohort struct {
	Subjects map[string]features.Vector
	Rows     []features.Vector
}

// LoadCohort reads a wearable cohort CSV and normalizes it
func LoadCohort(r io.Reader) (*Cohort, error) {
	table, err := tabular.ReadCSV(r)
	if err != nil {
		return nil, errors.Wrap(err, "load wearable cohort")
	}
	return CohortFromTable(table)
}

// CohortFromTable normalizes an already-parsed wearable table. The subject
// column is set aside before cleaning; on duplicate subject IDs the first row
// wins.
func CohortFromTable(t *tabular.Table) (*Cohort, error) {
	if !t.HasColumn(SubjectColumn) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "wearable table lacks %s column", SubjectColumn)
	}
	ids, _ := t.Column(SubjectColumn)

	clean := NewNormalizer().Clean(t.DropColumns(SubjectColumn))

	cohort := &Cohort{Subjects: make(map[string]features.Vector, len(ids))}
	for i := 0; i < clean.NumRows(); i++ {
		vec := rowVector(clean, i)
		cohort.Rows = append(cohort.Rows, vec)

		id := strings.TrimSpace(ids[i])
		if id == "" {
			continue
		}
		if _, dup := cohort.Subjects[id]; !dup {
			cohort.Subjects[id] = vec
		}
	}
	return cohort, nil
}

// Merge folds another cohort into this one. Rows are appended; on subject
// collisions the receiver wins, matching the first-row-wins rule for
// duplicates within one file.
func (c *Cohort) Merge(other *Cohort) {
	if other == nil {
		return
	}
	c.Rows = append(c.Rows, other.Rows...)
	for id, vec := range other.Subjects {
		if _, exists := c.Subjects[id]; !exists {
			c.Subjects[id] = vec
		}
	}
}

// BackgroundRow returns the row at an explicitly chosen index
func (c *Cohort) BackgroundRow(i int) (features.Vector, error) {
	if len(c.Rows) == 0 {
		return nil, errors.ErrNoBackgroundRow
	}
	if i < 0 || i >= len(c.Rows) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "background row %d out of range [0,%d)", i, len(c.Rows))
	}
	return c.Rows[i].Clone(), nil
}

// SampleBackgroundRow draws a row using the supplied source. The caller owns
// the source and its seed, so draws are reproducible.
func (c *Cohort) SampleBackgroundRow(rng *rand.Rand) (features.Vector, error) {
	if len(c.Rows) == 0 {
		return nil, errors.ErrNoBackgroundRow
	}
	return c.Rows[rng.Intn(len(c.Rows))].Clone(), nil
}

// rowVector converts a cleaned table row to a feature vector. Cells are
// numeric after cleaning; anything else counts as zero.
func rowVector(t *tabular.Table, row int) features.Vector {
	vec := make(features.Vector)
	for _, col := range t.Columns() {
		cell, _ := t.Cell(row, col)
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			v = 0
		}
		vec[col] = v
	}
	return vec
}
