package analyzer

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand"
	"testing"
)

func grayImage(w, h int, fill uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

func TestDCT2D_FlatBlockIsDCOnly(t *testing.T) {
	var block, out [dctBlock][dctBlock]float64
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			block[y][x] = 100
		}
	}

	dct2d(&block, &out)

	// Orthonormal DCT of a constant block: DC = 8 * value.
	if math.Abs(out[0][0]-800) > 1e-6 {
		t.Errorf("Expected DC 800, got %f", out[0][0])
	}
	for v := 0; v < dctBlock; v++ {
		for u := 0; u < dctBlock; u++ {
			if u == 0 && v == 0 {
				continue
			}
			if math.Abs(out[v][u]) > 1e-6 {
				t.Errorf("Expected zero AC at (%d,%d), got %f", u, v, out[v][u])
			}
		}
	}
}

func TestBandIndex_Range(t *testing.T) {
	if bandIndex(1) != 0 {
		t.Errorf("Expected diagonal 1 in band 0, got %d", bandIndex(1))
	}
	if bandIndex(14) != dctBands-1 {
		t.Errorf("Expected diagonal 14 in band %d, got %d", dctBands-1, bandIndex(14))
	}
	for s := 1; s <= 14; s++ {
		b := bandIndex(s)
		if b < 0 || b >= dctBands {
			t.Fatalf("Band out of range for diagonal %d: %d", s, b)
		}
	}
}

func TestJPEGAnalyze_FlatImage(t *testing.T) {
	a := NewJPEGForensicsAnalyzer()

	feats := a.Analyze(grayImage(64, 64, 128), nil)

	if feats.IsJPEG {
		t.Error("Expected is_jpeg false without file bytes")
	}
	if len(feats.BandEntropy) != dctBands {
		t.Fatalf("Expected %d band entropies, got %d", dctBands, len(feats.BandEntropy))
	}
	// Flat image: all AC coefficients are zero, so every band histogram
	// is one-hot at bin zero.
	for i, e := range feats.BandEntropy {
		if e > 0.01 {
			t.Errorf("Expected near-zero entropy in band %d, got %f", i, e)
		}
	}
	if feats.QTables != nil {
		t.Error("Expected no quantization fingerprint for non-JPEG input")
	}
}

func TestJPEGAnalyze_EncodedJPEGHasQTables(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}

	a := NewJPEGForensicsAnalyzer()
	feats := a.Analyze(img, buf.Bytes())

	if !feats.IsJPEG {
		t.Fatal("Expected is_jpeg true for encoded JPEG bytes")
	}
	if feats.QTables == nil {
		t.Fatal("Expected a quantization fingerprint")
	}
	if feats.QTables.SHA1 == "" || feats.QTables.Count < 1 {
		t.Errorf("Incomplete fingerprint: %+v", feats.QTables)
	}
	if feats.QTables.Mean <= 0 {
		t.Errorf("Expected positive quantizer mean, got %f", feats.QTables.Mean)
	}

	// Noise has energy across all bands.
	low, high := feats.BandEntropy[0], feats.BandEntropy[dctBands-1]
	if low <= 0 || high <= 0 {
		t.Errorf("Expected nonzero band entropies for noise, got low=%f high=%f", low, high)
	}
}

func TestJPEGAnalyze_PNGBytesAreNotJPEG(t *testing.T) {
	img := grayImage(32, 32, 200)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}

	feats := NewJPEGForensicsAnalyzer().Analyze(img, buf.Bytes())

	if feats.IsJPEG {
		t.Error("Expected is_jpeg false for PNG bytes")
	}
	if feats.QTables != nil {
		t.Error("Expected no fingerprint for PNG bytes")
	}
}

func TestQuantizationFingerprint_Deterministic(t *testing.T) {
	img := grayImage(32, 32, 90)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 60}); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}

	a := quantizationFingerprint(buf.Bytes())
	b := quantizationFingerprint(buf.Bytes())

	if a == nil || b == nil {
		t.Fatal("Expected fingerprints")
	}
	if a.SHA1 != b.SHA1 {
		t.Error("Expected deterministic quantization hash")
	}
}
