package cardio

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"asclepius/pkg/errors"
	"asclepius/pkg/tabular"
)

// Column names of a treadmill session log export
const (
	ColumnSessionID   = "Session_ID"
	ColumnSubjectID   = "Patient_ID"
	ColumnElapsed     = "Time_s"
	ColumnVO2         = "VO2"
	ColumnHeartRate   = "HR"
	ColumnVentilation = "VE"
)

// LoadSamples parses a treadmill session log CSV into samples. recordedAt
// stamps every sample with the ingestion time.
func LoadSamples(r io.Reader, recordedAt time.Time) ([]Sample, error) {
	table, err := tabular.ReadCSV(r)
	if err != nil {
		return nil, errors.Wrap(err, "load treadmill log")
	}
	return SamplesFromTable(table, recordedAt)
}

// SamplesFromTable converts a parsed treadmill log into samples. Rows without
// a session ID or a parseable elapsed time cannot be attributed or ordered and
// are dropped. A reading that is empty or fails to parse becomes a nil
// channel; the extractor decides what an incomplete row means.
func SamplesFromTable(t *tabular.Table, recordedAt time.Time) ([]Sample, error) {
	for _, required := range []string{ColumnSessionID, ColumnElapsed} {
		if !t.HasColumn(required) {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "treadmill log lacks %s column", required)
		}
	}

	samples := make([]Sample, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)

		sessionID := strings.TrimSpace(row[ColumnSessionID])
		if sessionID == "" {
			continue
		}

		elapsed, err := strconv.ParseFloat(strings.TrimSpace(row[ColumnElapsed]), 64)
		if err != nil || !isFinite(elapsed) {
			continue
		}

		samples = append(samples, Sample{
			SessionID:      sessionID,
			SubjectID:      strings.TrimSpace(row[ColumnSubjectID]),
			ElapsedSeconds: elapsed,
			VO2:            parseReading(row[ColumnVO2]),
			HeartRate:      parseReading(row[ColumnHeartRate]),
			Ventilation:    parseReading(row[ColumnVentilation]),
			RecordedAt:     recordedAt,
		})
	}
	return samples, nil
}

// parseReading converts one instrument cell. Stations write blanks or error
// markers for a dropped channel; both come back as a missing reading.
func parseReading(cell string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || !isFinite(v) {
		return nil
	}
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
