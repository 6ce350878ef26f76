package assessment

import (
	"math"

	"asclepius/pkg/errors"
)

// Policy selects how a final recovery score maps to estimated recovery days.
// All three policies are first-class; callers pick one explicitly and there
// is no fallback between them.
type Policy string

const (
	// PolicyLinearA maps linearly with a 60-day floor at score 3.0
	PolicyLinearA Policy = "linear_a"

	// PolicyBucketedB maps score bands to 60/90/120 days
	PolicyBucketedB Policy = "bucketed_b"

	// PolicyLinearC maps linearly from a 180-day ceiling
	PolicyLinearC Policy = "linear_c"
)

// Valid checks if the policy is one of the known mappings
func (p Policy) Valid() bool {
	switch p {
	case PolicyLinearA, PolicyBucketedB, PolicyLinearC:
		return true
	}
	return false
}

// String returns string representation
func (p Policy) String() string {
	return string(p)
}

// ParsePolicy converts a config string to a Policy
func ParsePolicy(s string) (Policy, error) {
	p := Policy(s)
	if !p.Valid() {
		return "", errors.Wrapf(errors.ErrUnknownPolicy, "%q", s)
	}
	return p, nil
}

// Mode selects the execution mode the interpreter runs under
type Mode string

const (
	// ModeSingle is a single simulated patient
	ModeSingle Mode = "single"

	// ModeBatch is a cohort scoring run
	ModeBatch Mode = "batch"
)

// Valid checks if the mode is known
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeBatch
}

// String returns string representation
func (m Mode) String() string {
	return string(m)
}

// ParseMode converts a config string to a Mode
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", errors.Wrapf(errors.ErrUnknownMode, "%q", s)
	}
	return m, nil
}

// RecoveryDays maps a final recovery score to estimated recovery days under
// the given policy. Rounding is half away from zero.
func RecoveryDays(p Policy, finalScore float64) (int, error) {
	switch p {
	case PolicyLinearA:
		return int(math.Round((3.0-finalScore)*30 + 60)), nil
	case PolicyBucketedB:
		switch {
		case finalScore < 1:
			return 60, nil
		case finalScore < 2:
			return 90, nil
		default:
			return 120, nil
		}
	case PolicyLinearC:
		return int(math.Round(180 - finalScore*50)), nil
	}
	return 0, errors.Wrapf(errors.ErrUnknownPolicy, "%q", p)
}

// Percentile maps a sub-score onto a cohort scale as a whole percent. The
// result is capped above at 100 but deliberately not floored at zero: a
// negative percentile is a diagnostic signal that the model emitted a
// negative score.
func Percentile(score, scale float64) int {
	p := int(math.Round(score / scale * 100))
	if p > 100 {
		return 100
	}
	return p
}
