package detector

import (
	"image"
	"image/color"
	"testing"
)

func TestRegistry_FallsBackWithoutModel(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	det := reg.Detector()

	if det == nil {
		t.Fatal("Expected a detector even without an ONNX model")
	}
	if det.Tag() != "heuristic-skin" {
		t.Errorf("Expected heuristic fallback, got %q", det.Tag())
	}
}

func TestRegistry_Memoizes(t *testing.T) {
	reg := NewRegistry("")

	if reg.Detector() != reg.Detector() {
		t.Error("Expected the same detector instance across calls")
	}
}

func TestResolveSharedLibraryPath_ConfiguredPathWins(t *testing.T) {
	// The detector takes the library path as a plain value; an env
	// override, if any, is the config layer's business.
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "/elsewhere/libonnxruntime.so")

	got := resolveSharedLibraryPath(t.TempDir(), "/opt/forensics/libonnxruntime.so")
	if got != "/opt/forensics/libonnxruntime.so" {
		t.Errorf("Expected the configured path, got %q", got)
	}
}

func TestHeuristicDetector_NoFaceOnFlatBackground(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{30, 30, 200, 255}) // blue, not skin
		}
	}

	boxes, err := NewHeuristicDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 0 {
		t.Errorf("Expected no boxes on blue background, got %d", len(boxes))
	}
}

func TestHeuristicDetector_FindsSkinPatch(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{30, 30, 200, 255})
		}
	}
	// Skin-toned oval-ish block around the center.
	for y := 60; y < 140; y++ {
		for x := 70; x < 130; x++ {
			img.Set(x, y, color.RGBA{224, 172, 140, 255})
		}
	}

	boxes, err := NewHeuristicDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) == 0 {
		t.Fatal("Expected at least one box for the skin patch")
	}

	box := boxes[0]
	if box.X > 75 || box.X+box.Width < 125 || box.Y > 65 || box.Y+box.Height < 135 {
		t.Errorf("Box does not cover the patch: %+v", box)
	}
}

func TestHeuristicDetector_LargestFirst(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	skin := color.RGBA{224, 172, 140, 255}
	for y := 20; y < 60; y++ { // small patch
		for x := 20; x < 55; x++ {
			img.Set(x, y, skin)
		}
	}
	for y := 80; y < 180; y++ { // large patch
		for x := 150; x < 240; x++ {
			img.Set(x, y, skin)
		}
	}

	boxes, err := NewHeuristicDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) < 2 {
		t.Fatalf("Expected two boxes, got %d", len(boxes))
	}
	if boxes[0].Area() < boxes[1].Area() {
		t.Error("Expected boxes ordered by descending area")
	}
}
