package gait

import (
	"asclepius/internal/domain/features"
)

// SubjectColumn is the identifier column of wearable cohort exports
const SubjectColumn = "Patient_ID"

// WearableSummary is a per-subject gait summary derived from a wearable
// activity export
type WearableSummary struct {
	Velocity   float64 `json:"velocity"`    // m/s
	Cadence    float64 `json:"cadence"`     // steps/min
	StrideTime float64 `json:"stride_time"` // seconds per stride
}

// Features converts the summary to model input under the canonical names
func (w WearableSummary) Features() features.Vector {
	return features.Vector{
		features.Velocity:   w.Velocity,
		features.Cadence:    w.Cadence,
		features.StrideTime: w.StrideTime,
	}
}
