package fitfile

import (
	"io"
	"math"
	"os"

	"github.com/tormoder/fit"

	"asclepius/internal/domain/gait"
	"asclepius/pkg/errors"
)

// stepsPerStride converts cadence in steps/min into stride time in seconds.
// One stride is two steps, so stride time is 120 over cadence.
const stepsPerStride = 120.0

// DecodeFile reads a wearable FIT export from disk and reduces it to the
// three gait features.
func DecodeFile(path string) (gait.WearableSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return gait.WearableSummary{}, errors.Wrapf(err, "open fit export %s", path)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a FIT activity stream. Exports without usable speed or
// cadence data fail with ErrUnusableExport.
func Decode(r io.Reader) (gait.WearableSummary, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return gait.WearableSummary{}, errors.Wrapf(errors.ErrUnusableExport, "decode fit stream: %v", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return gait.WearableSummary{}, errors.Wrapf(errors.ErrUnusableExport, "not an activity file: %v", err)
	}

	return Summarize(activity)
}

// Summarize reduces a decoded activity to average velocity, average cadence
// and the derived stride time. Session-level averages are preferred; when
// the device wrote none, record samples are averaged instead.
func Summarize(activity *fit.ActivityFile) (gait.WearableSummary, error) {
	if activity == nil {
		return gait.WearableSummary{}, errors.Wrap(errors.ErrUnusableExport, "empty activity")
	}

	velocity, haveVelocity := sessionVelocity(activity.Sessions)
	cadence, haveCadence := sessionCadence(activity.Sessions)

	if !haveVelocity {
		velocity, haveVelocity = recordVelocity(activity.Records)
	}
	if !haveCadence {
		cadence, haveCadence = recordCadence(activity.Records)
	}

	if !haveVelocity {
		return gait.WearableSummary{}, errors.Wrap(errors.ErrUnusableExport, "no speed data")
	}
	if !haveCadence || cadence <= 0 {
		return gait.WearableSummary{}, errors.Wrap(errors.ErrUnusableExport, "no cadence data")
	}

	return gait.WearableSummary{
		Velocity:   velocity,
		Cadence:    cadence,
		StrideTime: stepsPerStride / cadence,
	}, nil
}

func sessionVelocity(sessions []*fit.SessionMsg) (float64, bool) {
	for _, s := range sessions {
		if s == nil {
			continue
		}
		if v := s.GetEnhancedAvgSpeedScaled(); isFinite(v) && v > 0 {
			return v, true
		}
		if v := s.GetAvgSpeedScaled(); isFinite(v) && v > 0 {
			return v, true
		}
	}
	return 0, false
}

func sessionCadence(sessions []*fit.SessionMsg) (float64, bool) {
	for _, s := range sessions {
		if s == nil {
			continue
		}
		if c := cadenceValue(s.GetAvgCadence()); c > 0 {
			return c, true
		}
	}
	return 0, false
}

// cadenceValue unwraps the dynamic avg_cadence field, which decodes as uint8
// or uint16 depending on the device profile. Invalid sentinels map to 0.
func cadenceValue(v any) float64 {
	switch x := v.(type) {
	case uint8:
		if x == math.MaxUint8 {
			return 0
		}
		return float64(x)
	case uint16:
		if x == math.MaxUint16 {
			return 0
		}
		return float64(x)
	case float64:
		if !isFinite(x) || x < 0 {
			return 0
		}
		return x
	default:
		return 0
	}
}

func recordVelocity(records []*fit.RecordMsg) (float64, bool) {
	var sum float64
	var n int
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if v := rec.GetEnhancedSpeedScaled(); isFinite(v) && v >= 0 {
			sum += v
			n++
			continue
		}
		if v := rec.GetSpeedScaled(); isFinite(v) && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func recordCadence(records []*fit.RecordMsg) (float64, bool) {
	var sum float64
	var n int
	for _, rec := range records {
		if rec == nil || rec.Cadence == math.MaxUint8 {
			continue
		}
		sum += float64(rec.Cadence)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
