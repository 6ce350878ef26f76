package cardio

import (
	"sort"
	"time"

	"asclepius/pkg/errors"
)

// Session skip reasons, used as metric labels and event payloads
const (
	SkipNoCompleteRows   = "no_complete_rows"
	SkipNoRecoverySample = "no_recovery_sample"
	SkipZeroPeakVO2      = "zero_peak_vo2"
)

// recoveryWindowSeconds is how long after the heart-rate peak the recovery
// reading is taken
const recoveryWindowSeconds = 60.0

// SkippedSession records a session the extractor could not derive markers from
type SkippedSession struct {
	SessionID string
	SubjectID string
	Reason    string
}

// Extractor derives per-session recovery markers from raw treadmill samples.
// Extraction never fails as a whole: sessions that cannot produce a full
// marker set are dropped, so the output length is at most the number of
// distinct sessions in the input.
type Extractor struct{}

// NewExtractor creates an Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract partitions samples by session and derives markers for each session
// that survives validation. Sessions appear in the output in first-appearance
// order of the input.
func (e *Extractor) Extract(samples []Sample) []RecoveryMarkers {
	markers, _ := e.ExtractWithSkips(samples)
	return markers
}

// ExtractWithSkips is Extract plus the list of sessions that were dropped and
// why. Callers that publish skip events or metrics use this form.
func (e *Extractor) ExtractWithSkips(samples []Sample) ([]RecoveryMarkers, []SkippedSession) {
	order := make([]string, 0)
	bySession := make(map[string][]Sample)
	for _, s := range samples {
		if _, seen := bySession[s.SessionID]; !seen {
			order = append(order, s.SessionID)
		}
		bySession[s.SessionID] = append(bySession[s.SessionID], s)
	}

	markers := make([]RecoveryMarkers, 0, len(order))
	var skipped []SkippedSession
	for _, id := range order {
		m, err := extractSession(id, bySession[id])
		if err != nil {
			var malformed *errors.MalformedSessionError
			reason := "unknown"
			if errors.As(err, &malformed) {
				reason = malformed.Reason
			}
			skipped = append(skipped, SkippedSession{
				SessionID: id,
				SubjectID: subjectOf(bySession[id]),
				Reason:    reason,
			})
			continue
		}
		markers = append(markers, m)
	}
	return markers, skipped
}

// extractSession derives markers for a single session
func extractSession(sessionID string, samples []Sample) (RecoveryMarkers, error) {
	rows := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Complete() {
			rows = append(rows, s)
		}
	}
	if len(rows) == 0 {
		return RecoveryMarkers{}, errors.NewMalformedSessionError(sessionID, SkipNoCompleteRows)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ElapsedSeconds < rows[j].ElapsedSeconds
	})

	// Strict > keeps the first occurrence on ties for both peaks
	peakVO2Idx := 0
	peakHRIdx := 0
	for i := range rows {
		if *rows[i].VO2 > *rows[peakVO2Idx].VO2 {
			peakVO2Idx = i
		}
		if *rows[i].HeartRate > *rows[peakHRIdx].HeartRate {
			peakHRIdx = i
		}
	}

	maxHR := *rows[peakHRIdx].HeartRate
	tPeak := rows[peakHRIdx].ElapsedSeconds

	recoveryIdx := -1
	for i := peakHRIdx; i < len(rows); i++ {
		if rows[i].ElapsedSeconds >= tPeak+recoveryWindowSeconds {
			recoveryIdx = i
			break
		}
	}
	if recoveryIdx < 0 {
		return RecoveryMarkers{}, errors.NewMalformedSessionError(sessionID, SkipNoRecoverySample)
	}

	peakVO2 := *rows[peakVO2Idx].VO2
	if peakVO2 == 0 {
		return RecoveryMarkers{}, errors.NewMalformedSessionError(sessionID, SkipZeroPeakVO2)
	}

	return RecoveryMarkers{
		SessionID:             sessionID,
		SubjectID:             rows[0].SubjectID,
		PeakVO2:               peakVO2,
		HeartRateRecovery1Min: maxHR - *rows[recoveryIdx].HeartRate,
		VentilationToVO2:      *rows[peakVO2Idx].Ventilation / peakVO2,
		ExtractedAt:           time.Now().UTC(),
	}, nil
}

func subjectOf(samples []Sample) string {
	for _, s := range samples {
		if s.SubjectID != "" {
			return s.SubjectID
		}
	}
	return ""
}
