package ml

import (
	"asclepius/internal/domain/features"
	"asclepius/pkg/errors"
)

// Model is a pretrained regression artifact. Implementations are stateless
// across calls and safe for concurrent Predict.
type Model interface {
	// Predict evaluates the model on the named features. Keys beyond the
	// required set are ignored.
	Predict(v features.Vector) (float64, error)

	// RequiredFeatures returns the ordered feature names the model was
	// fitted against. The order defines the input tensor layout.
	RequiredFeatures() []string

	// Name identifies the model in logs and metrics
	Name() string

	// Close releases runtime resources. Safe to call more than once.
	Close() error
}

// vectorize resolves the required features into tensor order. Every absent
// required name is reported, each exactly once.
func vectorize(required []string, v features.Vector) ([]float64, error) {
	out := make([]float64, len(required))
	var missing []string
	seen := make(map[string]bool, len(required))
	for i, name := range required {
		val, ok := v[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			continue
		}
		out[i] = val
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingFeatureError(missing)
	}
	return out, nil
}
