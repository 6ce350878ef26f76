package scoring

import (
	"time"

	"asclepius/internal/domain/assessment"
	"asclepius/internal/domain/features"
	"asclepius/internal/metrics"
	"asclepius/internal/ml"
	"asclepius/pkg/errors"
)

// Final recovery score bounds. The meta model may emit any real value; the
// chain clamps unconditionally.
const (
	FinalScoreMin = 0.0
	FinalScoreMax = 3.0
)

// Chain invokes the three pretrained models in fixed order: cardiac and
// mobility on their feature vectors, then the meta model on exactly the two
// sub-scores. Models are injected and must already be loaded.
type Chain struct {
	cardiac  ml.Model
	mobility ml.Model
	meta     ml.Model
}

// NewChain creates a Chain over the three models
func NewChain(cardiac, mobility, meta ml.Model) (*Chain, error) {
	if cardiac == nil || mobility == nil || meta == nil {
		return nil, errors.Wrap(errors.ErrModelNotLoaded, "chain requires cardiac, mobility and meta models")
	}
	return &Chain{cardiac: cardiac, mobility: mobility, meta: meta}, nil
}

// NewChainFromBundle creates a Chain from a loaded bundle
func NewChainFromBundle(b *ml.Bundle) (*Chain, error) {
	if !b.Loaded() {
		return nil, errors.Wrap(errors.ErrModelNotLoaded, "bundle incomplete")
	}
	return NewChain(b.Cardiac, b.Mobility, b.Meta)
}

// CardiacFeatures returns the cardiac model's required feature names
func (c *Chain) CardiacFeatures() []string {
	return c.cardiac.RequiredFeatures()
}

// MobilityFeatures returns the mobility model's required feature names
func (c *Chain) MobilityFeatures() []string {
	return c.mobility.RequiredFeatures()
}

// Score runs the chain for one subject. Any model failure aborts only this
// subject.
func (c *Chain) Score(cardiacVec, mobilityVec features.Vector) (assessment.SubScores, error) {
	cardiacScore, err := c.predict(c.cardiac, cardiacVec)
	if err != nil {
		return assessment.SubScores{}, errors.Wrap(err, "cardiac model")
	}

	mobilityScore, err := c.predict(c.mobility, mobilityVec)
	if err != nil {
		return assessment.SubScores{}, errors.Wrap(err, "mobility model")
	}

	metaVec := features.Vector{
		features.CardiacScore:  cardiacScore,
		features.MobilityScore: mobilityScore,
	}
	raw, err := c.predict(c.meta, metaVec)
	if err != nil {
		return assessment.SubScores{}, errors.Wrap(err, "meta model")
	}

	return assessment.SubScores{
		Cardiac:  cardiacScore,
		Mobility: mobilityScore,
		Final:    clampFinal(raw),
	}, nil
}

// predict times a single model invocation
func (c *Chain) predict(m ml.Model, v features.Vector) (float64, error) {
	start := time.Now()
	out, err := m.Predict(v)
	metrics.RecordModelLatency(m.Name(), time.Since(start).Seconds())
	return out, err
}

func clampFinal(v float64) float64 {
	if v < FinalScoreMin {
		return FinalScoreMin
	}
	if v > FinalScoreMax {
		return FinalScoreMax
	}
	return v
}
