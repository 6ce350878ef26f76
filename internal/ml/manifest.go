package ml

import (
	"encoding/json"
	"os"
	"path/filepath"

	"asclepius/pkg/errors"
)

// Model artifact types
const (
	TypeONNX   = "onnx"
	TypeLinear = "linear"
)

// Manifest describes one packaged model artifact. Training exports a
// manifest next to the artifact because ONNX files do not carry feature
// names.
type Manifest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Features []string `json:"features"`

	// ONNX artifacts: file path relative to the manifest plus tensor names
	Path   string `json:"path,omitempty"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`

	// Linear artifacts: fitted parameters inline
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
}

// LoadManifest reads and validates a model manifest
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model manifest %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "parse model manifest %s", path)
	}

	if m.Name == "" {
		return nil, errors.NewValidationError("name", "must not be empty", m.Name)
	}
	if len(m.Features) == 0 {
		return nil, errors.NewValidationError("features", "must list at least one feature", nil)
	}
	switch m.Type {
	case TypeONNX:
		if m.Path == "" {
			return nil, errors.NewValidationError("path", "onnx manifest must name an artifact file", m.Path)
		}
	case TypeLinear:
		if len(m.Coefficients) != len(m.Features) {
			return nil, errors.NewValidationError("coefficients", "must match feature count", len(m.Coefficients))
		}
	default:
		return nil, errors.Wrapf(errors.ErrUnknownModelType, "%q", m.Type)
	}
	return &m, nil
}

// Load reads a manifest and constructs the model it describes
func Load(manifestPath string) (Model, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	switch m.Type {
	case TypeONNX:
		return newONNXModel(m, filepath.Dir(manifestPath))
	case TypeLinear:
		return NewLinearModel(m.Name, m.Features, m.Coefficients, m.Intercept)
	}
	return nil, errors.Wrapf(errors.ErrUnknownModelType, "%q", m.Type)
}
