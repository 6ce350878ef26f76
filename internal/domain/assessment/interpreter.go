package assessment

import (
	"asclepius/pkg/errors"
)

// Recommendation texts. Downstream consumers match on these strings, so they
// are part of the data contract.
const (
	AdviceCardioRehab          = "Increase supervised cardio rehab."
	AdviceMobilityStrength     = "Continue mobility strengthening."
	AdviceMobilityMaintain     = "Maintain mobility and monitor gait changes."
	AdviceIndependentRehab     = "Ready for transition to independent rehab."
	AdviceMonitorCardiacStress = "High mobility, monitor cardiac stress tolerance."
)

// Default percentile scales for the diagnostic cohort mapping
const (
	DefaultCardiacScale  = 120.0
	DefaultMobilityScale = 150.0
)

// SubScores carries the chained model outputs for one subject. Final is
// already clamped to [0, 3].
type SubScores struct {
	Cardiac  float64 `json:"cardiac_score"`
	Mobility float64 `json:"mobility_score"`
	Final    float64 `json:"final_score"`
}

// Evaluation is the interpreted outcome attached to an assessment
type Evaluation struct {
	RecoveryDays       int      `json:"recovery_days"`
	Recommendations    []string `json:"recommendations"`
	CardiacPercentile  *int     `json:"cardiac_percentile,omitempty"`
	MobilityPercentile *int     `json:"mobility_percentile,omitempty"`
}

// Recommendations applies the advisory rules in fixed order. Rules are
// independent and each contributes at most one line, so duplicates cannot
// occur. All threshold comparisons are strict. The maintenance line of rule
// two is emitted only for single-patient runs.
func Recommendations(cardiac, mobility float64, mode Mode) []string {
	out := make([]string, 0, 4)

	if cardiac < 40 {
		out = append(out, AdviceCardioRehab)
	}

	if mobility < 100 {
		out = append(out, AdviceMobilityStrength)
	} else if mode == ModeSingle {
		out = append(out, AdviceMobilityMaintain)
	}

	if cardiac > 80 && mobility > 140 {
		out = append(out, AdviceIndependentRehab)
	}

	if mobility > 120 && cardiac < 50 {
		out = append(out, AdviceMonitorCardiacStress)
	}

	return out
}

// InterpreterConfig configures an Interpreter. Zero scales fall back to the
// defaults.
type InterpreterConfig struct {
	Policy        Policy
	Mode          Mode
	CardiacScale  float64
	MobilityScale float64
}

// Interpreter turns chained model scores into recovery days, advice, and, in
// batch mode, diagnostic percentiles.
type Interpreter struct {
	policy        Policy
	mode          Mode
	cardiacScale  float64
	mobilityScale float64
}

// NewInterpreter validates the config and creates an Interpreter
func NewInterpreter(cfg InterpreterConfig) (*Interpreter, error) {
	if !cfg.Policy.Valid() {
		return nil, errors.Wrapf(errors.ErrUnknownPolicy, "%q", cfg.Policy)
	}
	if !cfg.Mode.Valid() {
		return nil, errors.Wrapf(errors.ErrUnknownMode, "%q", cfg.Mode)
	}
	if cfg.CardiacScale == 0 {
		cfg.CardiacScale = DefaultCardiacScale
	}
	if cfg.MobilityScale == 0 {
		cfg.MobilityScale = DefaultMobilityScale
	}
	return &Interpreter{
		policy:        cfg.Policy,
		mode:          cfg.Mode,
		cardiacScale:  cfg.CardiacScale,
		mobilityScale: cfg.MobilityScale,
	}, nil
}

// Policy returns the configured duration policy
func (i *Interpreter) Policy() Policy {
	return i.policy
}

// Mode returns the configured execution mode
func (i *Interpreter) Mode() Mode {
	return i.mode
}

// Interpret evaluates one subject's scores
func (i *Interpreter) Interpret(scores SubScores) (Evaluation, error) {
	days, err := RecoveryDays(i.policy, scores.Final)
	if err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{
		RecoveryDays:    days,
		Recommendations: Recommendations(scores.Cardiac, scores.Mobility, i.mode),
	}

	if i.mode == ModeBatch {
		cp := Percentile(scores.Cardiac, i.cardiacScale)
		mp := Percentile(scores.Mobility, i.mobilityScale)
		ev.CardiacPercentile = &cp
		ev.MobilityPercentile = &mp
	}

	return ev, nil
}
