package imaging

import (
	"image"
	"image/color"
	"testing"
)

func fillImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResizeToProcessing_Disabled(t *testing.T) {
	img := fillImage(640, 480, color.RGBA{100, 100, 100, 255})

	out, scale := ResizeToProcessing(img, 0)

	if scale != 1.0 {
		t.Errorf("Expected scale 1.0 with maxDim 0, got %f", scale)
	}
	if out != image.Image(img) {
		t.Error("Expected the frame to be returned unchanged")
	}
}

func TestResizeToProcessing_AlreadySmall(t *testing.T) {
	img := fillImage(320, 240, color.RGBA{100, 100, 100, 255})

	out, scale := ResizeToProcessing(img, 640)

	if scale != 1.0 {
		t.Errorf("Expected scale 1.0 for small frame, got %f", scale)
	}
	if out.Bounds().Dx() != 320 {
		t.Errorf("Expected unchanged width 320, got %d", out.Bounds().Dx())
	}
}

func TestResizeToProcessing_Downscale(t *testing.T) {
	img := fillImage(1600, 800, color.RGBA{100, 100, 100, 255})

	out, scale := ResizeToProcessing(img, 800)

	if scale != 0.5 {
		t.Errorf("Expected scale 0.5, got %f", scale)
	}
	if out.Bounds().Dx() != 800 || out.Bounds().Dy() != 400 {
		t.Errorf("Expected 800x400, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestToYCbCr_Gray(t *testing.T) {
	img := fillImage(16, 16, color.RGBA{128, 128, 128, 255})

	yp, cb, cr := ToYCbCr(img)

	if yp.At(8, 8) < 120 || yp.At(8, 8) > 136 {
		t.Errorf("Expected Y near 128 for mid-gray, got %d", yp.At(8, 8))
	}
	// Neutral gray has centered chroma.
	if cb.At(8, 8) < 120 || cb.At(8, 8) > 136 {
		t.Errorf("Expected Cb near 128, got %d", cb.At(8, 8))
	}
	if cr.At(8, 8) < 120 || cr.At(8, 8) > 136 {
		t.Errorf("Expected Cr near 128, got %d", cr.At(8, 8))
	}
}

func TestMedian(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			gray.Set(x, y, color.Gray{77})
		}
	}

	if m := Median(gray); m != 77 {
		t.Errorf("Expected median 77, got %f", m)
	}
}

func TestEdgeMask_Uniform(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			gray.Set(x, y, color.Gray{128})
		}
	}

	mask := EdgeMask(gray)

	if mask.Count() != 0 {
		t.Errorf("Expected no edges in uniform image, got %d", mask.Count())
	}
}

func TestEdgeMask_Step(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if x < 25 {
				gray.Set(x, y, color.Gray{30})
			} else {
				gray.Set(x, y, color.Gray{220})
			}
		}
	}

	mask := EdgeMask(gray)

	if mask.Count() == 0 {
		t.Error("Expected edges along the vertical step")
	}
	// Edges should concentrate near the step column.
	for y := 5; y < 45; y++ {
		if !mask.At(24, y) && !mask.At(25, y) && !mask.At(26, y) {
			t.Fatalf("Expected edge near x=25 at row %d", y)
		}
	}
}
