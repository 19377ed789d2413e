package analyzer

import (
	"image"
	"math/rand"
	"testing"
)

func grayFrame(w, h int, fill uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

func TestTemporal_BelowMinimumFrames(t *testing.T) {
	acc := NewTemporalAccumulator()
	acc.Add(grayFrame(32, 32, 100))
	acc.Add(grayFrame(32, 32, 200))

	feats := acc.Finalize()

	if feats.FlickerFrac != 0 || feats.StdP95 != 0 {
		t.Errorf("Expected zero stats below 3 frames, got %+v", feats)
	}
	if feats.FrameCount != 2 {
		t.Errorf("Expected frame count 2, got %d", feats.FrameCount)
	}
}

func TestTemporal_IdenticalFrames(t *testing.T) {
	acc := NewTemporalAccumulator()
	for i := 0; i < 10; i++ {
		acc.Add(grayFrame(32, 32, 77))
	}

	feats := acc.Finalize()

	if feats.FlickerFrac != 0 {
		t.Errorf("Expected zero flicker for identical frames, got %f", feats.FlickerFrac)
	}
	if feats.StdP95 > 0.01 {
		t.Errorf("Expected near-zero std p95, got %f", feats.StdP95)
	}
}

func TestTemporal_NoiseFrameElevatesStats(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	acc := NewTemporalAccumulator()
	for i := 0; i < 10; i++ {
		if i == 5 {
			noisy := image.NewGray(image.Rect(0, 0, 32, 32))
			for j := range noisy.Pix {
				noisy.Pix[j] = uint8(rng.Intn(256))
			}
			acc.Add(noisy)
			continue
		}
		acc.Add(grayFrame(32, 32, 100))
	}

	feats := acc.Finalize()

	if feats.FlickerFrac <= 0 {
		t.Errorf("Expected positive flicker fraction with an injected noise frame, got %f", feats.FlickerFrac)
	}
	if feats.StdP95 <= 12.0 {
		t.Errorf("Expected elevated std p95, got %f", feats.StdP95)
	}
}

func TestTemporal_MismatchedFramesSkipped(t *testing.T) {
	acc := NewTemporalAccumulator()
	acc.Add(grayFrame(32, 32, 10))
	acc.Add(grayFrame(64, 64, 10)) // skipped
	acc.Add(grayFrame(32, 32, 10))
	acc.Add(grayFrame(32, 32, 10))

	if acc.Frames() != 3 {
		t.Errorf("Expected 3 accepted frames, got %d", acc.Frames())
	}
}
