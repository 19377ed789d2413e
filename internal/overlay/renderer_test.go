package overlay

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"go-entropy-forensics/internal/imaging"
	"go-entropy-forensics/pkg/models"
)

func uniformFrame(w, h int, fill uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: fill, G: fill, B: fill, A: 255})
		}
	}
	return img
}

func TestNewRenderer_ClampsTopP(t *testing.T) {
	if r := NewRenderer(0, false, false); r.topP != 0.001 {
		t.Errorf("Expected top-p clamped to 0.001, got %f", r.topP)
	}
	if r := NewRenderer(0.9, false, false); r.topP != 0.2 {
		t.Errorf("Expected top-p clamped to 0.2, got %f", r.topP)
	}
}

func TestColdToHot_Endpoints(t *testing.T) {
	if r, g, b := coldToHot(0); r != 0 || g != 0 || b != 255 {
		t.Errorf("Expected blue at t=0, got (%d,%d,%d)", r, g, b)
	}
	if r, g, b := coldToHot(1); r != 255 || g != 0 || b != 0 {
		t.Errorf("Expected red at t=1, got (%d,%d,%d)", r, g, b)
	}
	if r, g, b := coldToHot(0.5); r != 0 || g != 255 || b != 0 {
		t.Errorf("Expected green at midpoint, got (%d,%d,%d)", r, g, b)
	}
}

func TestRender_ConstantMapHasNoAnomalies(t *testing.T) {
	z := imaging.NewFloatMap(64, 64)
	r := NewRenderer(0.02, false, false)

	out, info := r.Render(Frame{Native: uniformFrame(64, 64, 120), ZMap: z, Scale: 1})

	if info.ContourCount != 0 || info.Coverage != 0 {
		t.Errorf("Expected no anomalies for a constant map, got %+v", info)
	}
	// Degenerate map also means no heatmap blending.
	if c := out.RGBAAt(32, 32); c.R != 120 || c.G != 120 || c.B != 120 {
		t.Errorf("Expected untouched frame pixel, got %+v", c)
	}
}

func TestRender_HotBlockYieldsContour(t *testing.T) {
	z := imaging.NewFloatMap(80, 80)
	for y := 40; y < 50; y++ {
		for x := 40; x < 50; x++ {
			z.Set(x, y, 5.0)
		}
	}

	r := NewRenderer(0.02, false, false)
	_, info := r.Render(Frame{Native: uniformFrame(80, 80, 100), ZMap: z, Scale: 1})

	if info.ContourCount < 1 {
		t.Errorf("Expected at least one anomaly contour, got %d", info.ContourCount)
	}
	if info.Coverage < 0.01 || info.Coverage > 0.05 {
		t.Errorf("Expected coverage around the hot block size, got %f", info.Coverage)
	}
}

func TestRender_FaceBoxRescaledToNative(t *testing.T) {
	z := imaging.NewFloatMap(50, 50)
	face := models.FaceBox{X: 10, Y: 10, Width: 20, Height: 20}

	r := NewRenderer(0.02, false, false)
	out, _ := r.Render(Frame{
		Native: uniformFrame(100, 100, 50),
		ZMap:   z,
		Scale:  0.5,
		Faces:  []models.FaceBox{face},
	})

	// Processing box (10,10,20,20) at scale 0.5 maps to (20,20,40,40).
	if c := out.RGBAAt(20, 20); c != faceColor {
		t.Errorf("Expected face box corner at native coordinates, got %+v", c)
	}
	if c := out.RGBAAt(59, 20); c != faceColor {
		t.Errorf("Expected face box top edge at x=59, got %+v", c)
	}
	if c := out.RGBAAt(50, 50); c == faceColor {
		t.Error("Expected box interior untouched")
	}
}

func TestRender_LegendPanel(t *testing.T) {
	z := imaging.NewFloatMap(50, 50)

	r := NewRenderer(0.02, true, false)
	out, _ := r.Render(Frame{Native: uniformFrame(200, 200, 80), ZMap: z, Scale: 1})

	if c := out.RGBAAt(10, 170); c != legendBack {
		t.Errorf("Expected legend background in bottom-left corner, got %+v", c)
	}
}

func TestOpen3x3_RemovesSpeckle(t *testing.T) {
	mask := imaging.NewBoolMap(20, 20)
	mask.Set(5, 5, true) // isolated pixel
	for y := 10; y < 13; y++ {
		for x := 10; x < 13; x++ {
			mask.Set(x, y, true)
		}
	}

	opened := open3x3(mask)

	if opened.At(5, 5) {
		t.Error("Expected isolated speckle removed")
	}
	if opened.Count() != 9 {
		t.Errorf("Expected 3x3 block preserved, got %d pixels", opened.Count())
	}
}

func TestAnomalyMap_Normalization(t *testing.T) {
	z := imaging.NewFloatMap(4, 1)
	z.Pix = []float64{-1, 0, 1, 3}

	img := NewRenderer(0.02, false, false).AnomalyMap(z)

	if img.Pix[0] != 0 {
		t.Errorf("Expected minimum mapped to 0, got %d", img.Pix[0])
	}
	if img.Pix[3] != 255 {
		t.Errorf("Expected maximum mapped to 255, got %d", img.Pix[3])
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.png")

	if err := SavePNG(path, uniformFrame(8, 8, 10)); err != nil {
		t.Fatalf("Failed to save overlay: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("Expected non-empty PNG at %s", path)
	}
}
