package cardio

import (
	"time"

	"asclepius/internal/domain/features"
)

// Sample is one row of a treadmill cardiopulmonary test log. A nil reading
// means the instrument did not report that channel on this row.
type Sample struct {
	SessionID      string    `ch:"session_id" json:"session_id"`
	SubjectID      string    `ch:"subject_id" json:"subject_id"`
	ElapsedSeconds float64   `ch:"elapsed_seconds" json:"elapsed_seconds"`
	VO2            *float64  `ch:"vo2" json:"vo2,omitempty"`                 // L/min
	HeartRate      *float64  `ch:"heart_rate" json:"heart_rate,omitempty"`   // bpm
	Ventilation    *float64  `ch:"ventilation" json:"ventilation,omitempty"` // L/min
	RecordedAt     time.Time `ch:"recorded_at" json:"recorded_at"`
}

// Complete reports whether all three channels are present on this row
func (s Sample) Complete() bool {
	return s.VO2 != nil && s.HeartRate != nil && s.Ventilation != nil
}

// RecoveryMarkers are the cardiac markers derived once per test session
type RecoveryMarkers struct {
	SessionID             string    `ch:"session_id" json:"session_id"`
	SubjectID             string    `ch:"subject_id" json:"subject_id"`
	PeakVO2               float64   `ch:"peak_vo2" json:"peak_vo2"`
	HeartRateRecovery1Min float64   `ch:"hr_recovery_1min" json:"hr_recovery_1min"`
	VentilationToVO2      float64   `ch:"ve_vo2_ratio" json:"ve_vo2_ratio"`
	ExtractedAt           time.Time `ch:"extracted_at" json:"extracted_at"`
}

// Features converts the markers to model input under their canonical names
func (m RecoveryMarkers) Features() features.Vector {
	return features.Vector{
		features.VO2Max:         m.PeakVO2,
		features.HRRecovery1Min: m.HeartRateRecovery1Min,
		features.VEVO2Ratio:     m.VentilationToVO2,
	}
}
