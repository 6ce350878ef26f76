package features

import (
	"asclepius/pkg/errors"
)

// Canonical feature names shared across the scoring chain. These are the
// column names the pretrained models were fitted against and must not drift.
const (
	VO2Max         = "VO2_max"
	HRRecovery1Min = "HR_recovery_1min"
	VEVO2Ratio     = "VE_VO2_ratio"

	Velocity   = "Velocity"
	Cadence    = "Cadence"
	StrideTime = "Stride_time"

	CardiacScore  = "Cardiac_Score"
	MobilityScore = "Mobility_Score"
)

// Vector is a named feature map fed to a model. Keys a model does not list
// in its required features are ignored by Predict.
type Vector map[string]float64

// Clone returns a copy of the vector
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge combines vectors left to right; later sources override earlier ones
func Merge(sources ...Vector) Vector {
	out := make(Vector)
	for _, src := range sources {
		for k, val := range src {
			out[k] = val
		}
	}
	return out
}

// Assemble merges the sources in order (later sources win, which is how a
// simulated patient's measured markers override a sampled background row) and
// verifies every required name is present. On failure it returns a
// MissingFeatureError naming each absent feature exactly once, in required
// order. Extra keys pass through untouched.
func Assemble(required []string, sources ...Vector) (Vector, error) {
	merged := Merge(sources...)

	var missing []string
	seen := make(map[string]bool, len(required))
	for _, name := range required {
		if _, ok := merged[name]; !ok && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingFeatureError(missing)
	}
	return merged, nil
}
