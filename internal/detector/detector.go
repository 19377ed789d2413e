package detector

import (
	"image"
	"sync"

	"go-entropy-forensics/pkg/models"
)

// FaceDetector locates face boxes in a processing-resolution frame.
// Implementations must be safe for concurrent use once constructed.
type FaceDetector interface {
	Detect(frame image.Image) ([]models.FaceBox, error)
	Tag() string
}

// Registry probes detector availability once and memoizes the chosen
// implementation for the life of the process. It is constructed and
// passed explicitly so independent pipelines can hold independent
// registries.
type Registry struct {
	modelDir string
	libPath  string

	once sync.Once
	det  FaceDetector
}

// NewRegistry creates a registry that will look for the ONNX face
// model bundle under modelDir and probe common locations for the
// runtime shared library.
func NewRegistry(modelDir string) *Registry {
	return &Registry{modelDir: modelDir}
}

// NewRegistryWithLibrary additionally pins the onnxruntime shared
// library to an explicit path instead of probing for it.
func NewRegistryWithLibrary(modelDir, libPath string) *Registry {
	return &Registry{modelDir: modelDir, libPath: libPath}
}

// Detector returns the memoized detector, probing the primary ONNX
// implementation on first use and falling back to the pure-Go
// heuristic when the runtime or model is unavailable. Fallback is not
// an error; the chosen implementation's tag is recorded in results.
func (r *Registry) Detector() FaceDetector {
	r.once.Do(func() {
		if onnx, err := NewONNXDetector(r.modelDir, r.libPath); err == nil {
			r.det = onnx
			return
		}
		r.det = NewHeuristicDetector()
	})
	return r.det
}
