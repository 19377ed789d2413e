package detector

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	xdraw "golang.org/x/image/draw"

	"go-entropy-forensics/pkg/models"
)

// UltraFace-style single-shot detector geometry.
const (
	onnxInputW = 320
	onnxInputH = 240
	onnxBoxes  = 4420

	scoreThreshold = 0.7
	iouThreshold   = 0.4
)

// ONNXDetector wraps an ONNX runtime session over a face detection
// model. Tensors are allocated once and reused; Run is serialized.
type ONNXDetector struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	scores  *ort.Tensor[float32]
	boxes   *ort.Tensor[float32]

	mu sync.Mutex
}

// NewONNXDetector initializes the ONNX session. It fails (and the
// registry falls back) when the shared runtime library or the model
// file cannot be found. An empty libPath probes common locations.
func NewONNXDetector(modelDir, libPath string) (*ONNXDetector, error) {
	if modelDir == "" {
		return nil, errors.New("model directory not configured")
	}

	libPath = resolveSharedLibraryPath(modelDir, libPath)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(modelDir, "face_detector.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, onnxInputH, onnxInputW))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	scores, err := ort.NewEmptyTensor[float32](ort.NewShape(1, onnxBoxes, 2))
	if err != nil {
		return nil, fmt.Errorf("allocate scores tensor: %w", err)
	}
	boxes, err := ort.NewEmptyTensor[float32](ort.NewShape(1, onnxBoxes, 4))
	if err != nil {
		return nil, fmt.Errorf("allocate boxes tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"scores", "boxes"},
		[]ort.Value{input},
		[]ort.Value{scores, boxes},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXDetector{
		session: session,
		input:   input,
		scores:  scores,
		boxes:   boxes,
	}, nil
}

// Tag identifies the detector variant in scan results.
func (d *ONNXDetector) Tag() string { return "onnx-ultraface" }

// Detect runs inference and returns face boxes in frame coordinates.
func (d *ONNXDetector) Detect(frame image.Image) ([]models.FaceBox, error) {
	if d == nil || d.session == nil {
		return nil, errors.New("onnx detector not initialized")
	}

	b := frame.Bounds()
	resized := image.NewRGBA(image.Rect(0, 0, onnxInputW, onnxInputH))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), frame, b, xdraw.Src, nil)

	d.mu.Lock()
	defer d.mu.Unlock()

	// CHW layout, normalized with the model's mean/scale of 127/128.
	data := d.input.GetData()
	for y := 0; y < onnxInputH; y++ {
		for x := 0; x < onnxInputW; x++ {
			i := resized.PixOffset(x, y)
			pos := y*onnxInputW + x
			data[pos] = (float32(resized.Pix[i]) - 127) / 128
			data[onnxInputH*onnxInputW+pos] = (float32(resized.Pix[i+1]) - 127) / 128
			data[2*onnxInputH*onnxInputW+pos] = (float32(resized.Pix[i+2]) - 127) / 128
		}
	}

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	scores := d.scores.GetData()
	boxes := d.boxes.GetData()

	type candidate struct {
		score          float32
		x0, y0, x1, y1 float32
	}
	var cands []candidate
	for i := 0; i < onnxBoxes; i++ {
		score := scores[i*2+1]
		if score < scoreThreshold {
			continue
		}
		cands = append(cands, candidate{
			score: score,
			x0:    boxes[i*4],
			y0:    boxes[i*4+1],
			x1:    boxes[i*4+2],
			y1:    boxes[i*4+3],
		})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	// Greedy non-maximum suppression on the normalized boxes.
	var kept []candidate
	for _, c := range cands {
		overlaps := false
		for _, k := range kept {
			if iou(c.x0, c.y0, c.x1, c.y1, k.x0, k.y0, k.x1, k.y1) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	fw, fh := float64(b.Dx()), float64(b.Dy())
	out := make([]models.FaceBox, 0, len(kept))
	for _, k := range kept {
		x := int(math.Round(float64(k.x0) * fw))
		y := int(math.Round(float64(k.y0) * fh))
		w := int(math.Round(float64(k.x1-k.x0) * fw))
		h := int(math.Round(float64(k.y1-k.y0) * fh))
		if w <= 0 || h <= 0 {
			continue
		}
		out = append(out, models.FaceBox{X: x, Y: y, Width: w, Height: h})
	}
	return out, nil
}

func iou(ax0, ay0, ax1, ay1, bx0, by0, bx1, by1 float32) float32 {
	ix0, iy0 := maxf(ax0, bx0), maxf(ay0, by0)
	ix1, iy1 := minf(ax1, bx1), minf(ay1, by1)
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := (ix1 - ix0) * (iy1 - iy0)
	areaA := (ax1 - ax0) * (ay1 - ay0)
	areaB := (bx1 - bx0) * (by1 - by0)
	return inter / (areaA + areaB - inter)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// resolveSharedLibraryPath locates a platform onnxruntime shared
// library. A configured path wins; otherwise common names and
// locations are probed. The core reads no environment variables, so
// any env-based override belongs to the config layer.
func resolveSharedLibraryPath(modelDir, configured string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
