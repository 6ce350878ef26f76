package ml

import (
	"asclepius/pkg/errors"
)

// BundleConfig names the three manifests of the scoring chain
type BundleConfig struct {
	CardiacManifest  string
	MobilityManifest string
	MetaManifest     string

	// ONNXSharedLib optionally points at the onnxruntime shared library
	ONNXSharedLib string
}

// Bundle is the chained model set. It is loaded once before any scoring
// starts and never mutated afterwards, so concurrent subjects share it
// freely.
type Bundle struct {
	Cardiac  Model
	Mobility Model
	Meta     Model
}

// LoadBundle loads all three models, releasing any already-loaded model on
// failure
func LoadBundle(cfg BundleConfig) (*Bundle, error) {
	SetRuntimeLibrary(cfg.ONNXSharedLib)

	b := &Bundle{}

	var err error
	if b.Cardiac, err = Load(cfg.CardiacManifest); err != nil {
		return nil, errors.Wrap(err, "load cardiac model")
	}
	if b.Mobility, err = Load(cfg.MobilityManifest); err != nil {
		b.Close()
		return nil, errors.Wrap(err, "load mobility model")
	}
	if b.Meta, err = Load(cfg.MetaManifest); err != nil {
		b.Close()
		return nil, errors.Wrap(err, "load meta model")
	}
	return b, nil
}

// Loaded reports whether all three models are present
func (b *Bundle) Loaded() bool {
	return b != nil && b.Cardiac != nil && b.Mobility != nil && b.Meta != nil
}

// Close releases every loaded model
func (b *Bundle) Close() error {
	if b == nil {
		return nil
	}
	merr := &errors.MultiError{}
	for _, m := range []Model{b.Cardiac, b.Mobility, b.Meta} {
		if m != nil {
			merr.Add(m.Close())
		}
	}
	return merr.ToError()
}
