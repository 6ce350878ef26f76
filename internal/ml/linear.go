package ml

import (
	"asclepius/internal/domain/features"
	"asclepius/pkg/errors"
)

// LinearModel is a coefficients-and-intercept regressor evaluated in-process.
// The meta model ships in this form; tests use it as a stand-in for the
// heavier artifacts.
type LinearModel struct {
	name         string
	featureNames []string
	coefficients []float64
	intercept    float64
}

// NewLinearModel creates a linear regressor over the named features
func NewLinearModel(name string, featureNames []string, coefficients []float64, intercept float64) (*LinearModel, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "must not be empty", name)
	}
	if len(featureNames) == 0 {
		return nil, errors.NewValidationError("features", "must list at least one feature", nil)
	}
	if len(coefficients) != len(featureNames) {
		return nil, errors.NewValidationError("coefficients", "must match feature count", len(coefficients))
	}
	return &LinearModel{
		name:         name,
		featureNames: append([]string(nil), featureNames...),
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
	}, nil
}

// Predict returns intercept + dot(coefficients, features)
func (m *LinearModel) Predict(v features.Vector) (float64, error) {
	vals, err := vectorize(m.featureNames, v)
	if err != nil {
		return 0, err
	}
	out := m.intercept
	for i, c := range m.coefficients {
		out += c * vals[i]
	}
	return out, nil
}

// RequiredFeatures returns the ordered feature names
func (m *LinearModel) RequiredFeatures() []string {
	return append([]string(nil), m.featureNames...)
}

// Name returns the model name
func (m *LinearModel) Name() string {
	return m.name
}

// Close is a no-op for in-process models
func (m *LinearModel) Close() error {
	return nil
}
