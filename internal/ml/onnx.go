package ml

import (
	"path/filepath"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"asclepius/internal/domain/features"
	"asclepius/pkg/errors"
)

// Default tensor names produced by the training export
const (
	defaultInputName  = "input"
	defaultOutputName = "variable"
)

var (
	runtimeInitOnce sync.Once
	runtimeInitErr  error
)

// SetRuntimeLibrary points the ONNX runtime at a shared library. Must be
// called before the first model is loaded; later calls have no effect.
func SetRuntimeLibrary(path string) {
	if path != "" {
		onnxruntime.SetSharedLibraryPath(path)
	}
}

// initRuntime initializes the ONNX environment exactly once per process
func initRuntime() error {
	runtimeInitOnce.Do(func() {
		if onnxruntime.IsInitialized() {
			return
		}
		runtimeInitErr = onnxruntime.InitializeEnvironment()
	})
	return runtimeInitErr
}

// onnxModel runs a single-output ONNX regression session
type onnxModel struct {
	name       string
	features   []string
	inputName  string
	outputName string
	session    *onnxruntime.DynamicAdvancedSession
}

// newONNXModel loads the artifact named by the manifest. The artifact path
// is resolved relative to the manifest's directory.
func newONNXModel(m *Manifest, baseDir string) (*onnxModel, error) {
	if err := initRuntime(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize ONNX runtime")
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	inputName := m.Input
	if inputName == "" {
		inputName = defaultInputName
	}
	outputName := m.Output
	if outputName == "" {
		outputName = defaultOutputName
	}

	artifactPath := m.Path
	if !filepath.IsAbs(artifactPath) {
		artifactPath = filepath.Join(baseDir, artifactPath)
	}

	session, err := onnxruntime.NewDynamicAdvancedSession(artifactPath,
		[]string{inputName}, []string{outputName}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ONNX model %s", artifactPath)
	}

	return &onnxModel{
		name:       m.Name,
		features:   append([]string(nil), m.Features...),
		inputName:  inputName,
		outputName: outputName,
		session:    session,
	}, nil
}

// Predict runs inference on a [1, num_features] tensor and returns the
// scalar regression output. Sessions are safe for concurrent Run calls; the
// tensors are per-call.
func (m *onnxModel) Predict(v features.Vector) (float64, error) {
	if m.session == nil {
		return 0, errors.Wrapf(errors.ErrModelNotLoaded, "model %s", m.name)
	}

	vals, err := vectorize(m.features, v)
	if err != nil {
		return 0, err
	}

	inputShape := onnxruntime.NewShape(1, int64(len(vals)))
	inputTensor, err := onnxruntime.NewTensor(inputShape, vals)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	output := make([]float64, 1)
	outputShape := onnxruntime.NewShape(1, 1)
	outputTensor, err := onnxruntime.NewTensor(outputShape, output)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create output tensor")
	}
	defer outputTensor.Destroy()

	inputs := []onnxruntime.Value{inputTensor}
	outputs := []onnxruntime.Value{outputTensor}
	if err := m.session.Run(inputs, outputs); err != nil {
		return 0, errors.Wrapf(errors.ErrModelInference, "model %s: %v", m.name, err)
	}

	return output[0], nil
}

// RequiredFeatures returns the ordered feature names
func (m *onnxModel) RequiredFeatures() []string {
	return append([]string(nil), m.features...)
}

// Name returns the manifest name
func (m *onnxModel) Name() string {
	return m.name
}

// Close destroys the session. Idempotent.
func (m *onnxModel) Close() error {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	return nil
}
