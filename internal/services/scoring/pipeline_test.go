package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asclepius/internal/domain/assessment"
	"asclepius/internal/domain/features"
	"asclepius/internal/ml"
	"asclepius/pkg/errors"
)

// newTestPipeline wires a chain of linear models with unit coefficients so
// sub-scores are plain feature sums and the final score is easy to verify.
func newTestPipeline(t *testing.T, policy assessment.Policy, mode assessment.Mode) *Pipeline {
	t.Helper()

	cardiac, err := ml.NewLinearModel("cardiac",
		[]string{features.VO2Max, features.HRRecovery1Min, features.VEVO2Ratio},
		[]float64{1, 1, 1}, 0)
	require.NoError(t, err)

	mobility, err := ml.NewLinearModel("mobility",
		[]string{features.Velocity, features.Cadence, features.StrideTime},
		[]float64{1, 1, 1}, 0)
	require.NoError(t, err)

	meta, err := ml.NewLinearModel("meta",
		[]string{features.CardiacScore, features.MobilityScore},
		[]float64{0.01, 0.01}, 0)
	require.NoError(t, err)

	chain, err := NewChain(cardiac, mobility, meta)
	require.NoError(t, err)

	interp, err := assessment.NewInterpreter(assessment.InterpreterConfig{Policy: policy, Mode: mode})
	require.NoError(t, err)

	return NewPipeline(chain, interp, 2)
}

func testMarkers() features.Vector {
	return features.Vector{
		features.VO2Max:         30,
		features.HRRecovery1Min: 20,
		features.VEVO2Ratio:     10,
	}
}

func testGait() features.Vector {
	return features.Vector{
		features.Velocity:   2,
		features.Cadence:    96,
		features.StrideTime: 2,
	}
}

func TestPipeline_Score_SingleSubject(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeSingle)

	res, err := p.Score(context.Background(), SubjectInput{
		SubjectID: "P001",
		SessionID: "S001",
		Markers:   testMarkers(),
		Gait:      testGait(),
	})
	require.NoError(t, err)

	a := res.Assessment
	assert.Equal(t, "P001", a.SubjectID)
	assert.Equal(t, "S001", a.SessionID)
	assert.Equal(t, assessment.PolicyLinearA, a.Policy)
	assert.Equal(t, assessment.ModeSingle, a.Mode)

	// cardiac 30+20+10=60, mobility 2+96+2=100, final 0.01*60+0.01*100=1.6
	assert.InDelta(t, 60, a.CardiacScore, 1e-9)
	assert.InDelta(t, 100, a.MobilityScore, 1e-9)
	assert.InDelta(t, 1.6, a.FinalScore, 1e-9)

	// policy A: round((3-1.6)*30+60) = 102
	assert.Equal(t, 102, a.RecoveryDays)

	// cardiac >= 40 and mobility >= 100: single mode keeps the maintain advice
	assert.Equal(t, []string{assessment.AdviceMobilityMaintain}, a.Recommendations)

	// percentiles are a batch-only diagnostic
	assert.Nil(t, a.CardiacPercentile)
	assert.Nil(t, a.MobilityPercentile)

	// merged features feed the report
	assert.Equal(t, 30.0, res.Features[features.VO2Max])
	assert.Equal(t, 96.0, res.Features[features.Cadence])
	assert.Len(t, res.Features, 6)
}

func TestPipeline_Score_BatchModeAddsPercentiles(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeBatch)

	res, err := p.Score(context.Background(), SubjectInput{
		SubjectID: "P001",
		Markers:   testMarkers(),
		Gait:      testGait(),
	})
	require.NoError(t, err)

	a := res.Assessment
	require.NotNil(t, a.CardiacPercentile)
	require.NotNil(t, a.MobilityPercentile)
	assert.Equal(t, 50, *a.CardiacPercentile)  // round(60/120*100)
	assert.Equal(t, 67, *a.MobilityPercentile) // round(100/150*100)
}

func TestPipeline_Score_OverridesWinOverBackground(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeSingle)

	res, err := p.Score(context.Background(), SubjectInput{
		SubjectID: "P001",
		Markers:   testMarkers(),
		Gait:      testGait(),
		Overrides: features.Vector{features.VO2Max: 60},
	})
	require.NoError(t, err)

	assert.InDelta(t, 90, res.Assessment.CardiacScore, 1e-9)
	assert.Equal(t, 60.0, res.Features[features.VO2Max])
}

func TestPipeline_Score_OverridesCanFillMissingFeature(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeSingle)

	markers := testMarkers()
	delete(markers, features.VEVO2Ratio)

	res, err := p.Score(context.Background(), SubjectInput{
		SubjectID: "P001",
		Markers:   markers,
		Gait:      testGait(),
		Overrides: features.Vector{features.VEVO2Ratio: 10},
	})
	require.NoError(t, err)
	assert.InDelta(t, 60, res.Assessment.CardiacScore, 1e-9)
}

func TestPipeline_Score_MissingFeatureFails(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeSingle)

	markers := testMarkers()
	delete(markers, features.VEVO2Ratio)

	_, err := p.Score(context.Background(), SubjectInput{
		SubjectID: "P001",
		Markers:   markers,
		Gait:      testGait(),
	})
	require.Error(t, err)

	var missing *errors.MissingFeatureError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{features.VEVO2Ratio}, missing.Missing)
}

func TestPipeline_ScoreBatch_PreservesSubmissionOrder(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeBatch)

	inputs := []SubjectInput{
		{SubjectID: "P001", Markers: testMarkers(), Gait: testGait()},
		{SubjectID: "P002", Markers: testMarkers(), Gait: testGait()},
		{SubjectID: "P003", Markers: testMarkers(), Gait: testGait()},
		{SubjectID: "P004", Markers: testMarkers(), Gait: testGait()},
	}

	out := p.ScoreBatch(context.Background(), inputs)
	require.Empty(t, out.Failures)
	require.Len(t, out.Results, 4)

	for i, want := range []string{"P001", "P002", "P003", "P004"} {
		assert.Equal(t, want, out.Results[i].Assessment.SubjectID)
	}
}

func TestPipeline_ScoreBatch_IsolatesFailures(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeBatch)

	brokenGait := testGait()
	delete(brokenGait, features.Cadence)
	delete(brokenGait, features.StrideTime)

	inputs := []SubjectInput{
		{SubjectID: "P001", Markers: testMarkers(), Gait: testGait()},
		{SubjectID: "P002", Markers: testMarkers(), Gait: brokenGait},
		{SubjectID: "P003", Markers: testMarkers(), Gait: testGait()},
	}

	out := p.ScoreBatch(context.Background(), inputs)

	require.Len(t, out.Results, 2)
	assert.Equal(t, "P001", out.Results[0].Assessment.SubjectID)
	assert.Equal(t, "P003", out.Results[1].Assessment.SubjectID)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, "P002", out.Failures[0].SubjectID)

	var missing *errors.MissingFeatureError
	require.ErrorAs(t, out.Failures[0].Err, &missing)
	assert.Equal(t, []string{features.Cadence, features.StrideTime}, missing.Missing)
}

func TestPipeline_ScoreBatch_EmptyInput(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeBatch)

	out := p.ScoreBatch(context.Background(), nil)
	assert.Empty(t, out.Results)
	assert.Empty(t, out.Failures)
}

func TestPipeline_ScoreBatch_CancelledContext(t *testing.T) {
	p := newTestPipeline(t, assessment.PolicyLinearA, assessment.ModeBatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.ScoreBatch(ctx, []SubjectInput{
		{SubjectID: "P001", Markers: testMarkers(), Gait: testGait()},
		{SubjectID: "P002", Markers: testMarkers(), Gait: testGait()},
	})

	assert.Empty(t, out.Results)
	require.Len(t, out.Failures, 2)
	for _, f := range out.Failures {
		assert.ErrorIs(t, f.Err, context.Canceled)
	}
}
