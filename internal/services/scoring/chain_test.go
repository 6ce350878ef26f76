package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asclepius/internal/domain/features"
	"asclepius/internal/ml"
	"asclepius/pkg/errors"
)

type stubModel struct {
	name     string
	required []string
	out      float64
	err      error
}

func (s *stubModel) Predict(v features.Vector) (float64, error) { return s.out, s.err }
func (s *stubModel) RequiredFeatures() []string                 { return s.required }
func (s *stubModel) Name() string                               { return s.name }
func (s *stubModel) Close() error                               { return nil }

// capturingModel records the vector it was invoked with
type capturingModel struct {
	stubModel
	got features.Vector
}

func (c *capturingModel) Predict(v features.Vector) (float64, error) {
	c.got = v.Clone()
	return c.stubModel.Predict(v)
}

func TestNewChain_RejectsNilModels(t *testing.T) {
	ok := &stubModel{name: "m"}

	_, err := NewChain(nil, ok, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrModelNotLoaded)

	_, err = NewChain(ok, nil, ok)
	assert.Error(t, err)

	_, err = NewChain(ok, ok, nil)
	assert.Error(t, err)
}

func TestChain_Score_MetaSeesExactlyTwoScores(t *testing.T) {
	cardiac := &stubModel{name: "cardiac", out: 1.2}
	mobility := &stubModel{name: "mobility", out: 2.4}
	meta := &capturingModel{stubModel: stubModel{name: "meta", out: 1.8}}

	chain, err := NewChain(cardiac, mobility, meta)
	require.NoError(t, err)

	scores, err := chain.Score(features.Vector{}, features.Vector{})
	require.NoError(t, err)

	assert.Equal(t, 1.2, scores.Cardiac)
	assert.Equal(t, 2.4, scores.Mobility)
	assert.Equal(t, 1.8, scores.Final)

	require.Len(t, meta.got, 2)
	assert.Equal(t, 1.2, meta.got[features.CardiacScore])
	assert.Equal(t, 2.4, meta.got[features.MobilityScore])
}

func TestChain_Score_ClampsFinalScore(t *testing.T) {
	cases := []struct {
		name string
		raw  float64
		want float64
	}{
		{"far above range", 100, 3},
		{"far below range", -100, 0},
		{"upper bound", 3, 3},
		{"lower bound", 0, 0},
		{"inside range untouched", 1.37, 1.37},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain, err := NewChain(
				&stubModel{name: "cardiac", out: 50},
				&stubModel{name: "mobility", out: 110},
				&stubModel{name: "meta", out: tc.raw},
			)
			require.NoError(t, err)

			scores, err := chain.Score(features.Vector{}, features.Vector{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, scores.Final)

			// Sub-scores are reported raw, clamping applies to the final only.
			assert.Equal(t, 50.0, scores.Cardiac)
			assert.Equal(t, 110.0, scores.Mobility)
		})
	}
}

func TestChain_Score_ModelFailureAborts(t *testing.T) {
	boom := errors.Wrap(errors.ErrModelInference, "boom")

	chain, err := NewChain(
		&stubModel{name: "cardiac", err: boom},
		&stubModel{name: "mobility", out: 1},
		&stubModel{name: "meta", out: 1},
	)
	require.NoError(t, err)

	_, err = chain.Score(features.Vector{}, features.Vector{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrModelInference)
}

func TestChain_FeatureNamesComeFromModels(t *testing.T) {
	cardiac := &stubModel{name: "cardiac", required: []string{features.VO2Max, features.HRRecovery1Min}}
	mobility := &stubModel{name: "mobility", required: []string{features.Velocity}}

	chain, err := NewChain(cardiac, mobility, &stubModel{name: "meta"})
	require.NoError(t, err)

	assert.Equal(t, []string{features.VO2Max, features.HRRecovery1Min}, chain.CardiacFeatures())
	assert.Equal(t, []string{features.Velocity}, chain.MobilityFeatures())
}

func TestNewChainFromBundle(t *testing.T) {
	cardiac, err := ml.NewLinearModel("cardiac", []string{features.VO2Max}, []float64{1}, 0)
	require.NoError(t, err)
	mobility, err := ml.NewLinearModel("mobility", []string{features.Velocity}, []float64{1}, 0)
	require.NoError(t, err)
	meta, err := ml.NewLinearModel("meta", []string{features.CardiacScore, features.MobilityScore}, []float64{0.5, 0.5}, 0)
	require.NoError(t, err)

	chain, err := NewChainFromBundle(&ml.Bundle{Cardiac: cardiac, Mobility: mobility, Meta: meta})
	require.NoError(t, err)

	scores, err := chain.Score(
		features.Vector{features.VO2Max: 2},
		features.Vector{features.Velocity: 4},
	)
	require.NoError(t, err)
	assert.Equal(t, 2.0, scores.Cardiac)
	assert.Equal(t, 4.0, scores.Mobility)
	assert.Equal(t, 3.0, scores.Final)
}

func TestNewChainFromBundle_Incomplete(t *testing.T) {
	cardiac, err := ml.NewLinearModel("cardiac", []string{features.VO2Max}, []float64{1}, 0)
	require.NoError(t, err)

	_, err = NewChainFromBundle(&ml.Bundle{Cardiac: cardiac})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrModelNotLoaded)
}
