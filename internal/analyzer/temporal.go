package analyzer

import (
	"image"
	"math"

	"go-entropy-forensics/internal/stats"
	"go-entropy-forensics/pkg/models"
)

const (
	flickerStd   = 12.0 // per-pixel std flagged as flicker
	minTemporalN = 3
)

// TemporalAccumulator builds per-pixel variance across sampled video
// frames with streaming sums, so no frame stack is retained. Frames
// must share dimensions; mismatched frames are skipped.
type TemporalAccumulator struct {
	w, h  int
	n     int
	sum   []float64
	sumSq []float64
}

// NewTemporalAccumulator creates an empty accumulator.
func NewTemporalAccumulator() *TemporalAccumulator {
	return &TemporalAccumulator{}
}

// Add folds one grayscale frame into the running sums.
func (t *TemporalAccumulator) Add(gray *image.Gray) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if t.n == 0 {
		t.w, t.h = w, h
		t.sum = make([]float64, w*h)
		t.sumSq = make([]float64, w*h)
	} else if w != t.w || h != t.h {
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			i := y*w + x
			t.sum[i] += v
			t.sumSq[i] += v * v
		}
	}
	t.n++
}

// Frames returns the number of accumulated frames.
func (t *TemporalAccumulator) Frames() int { return t.n }

// Finalize reports the flicker fraction and the 95th percentile of the
// per-pixel std map. Fewer than three frames yield zeros.
func (t *TemporalAccumulator) Finalize() *models.TemporalFeatures {
	feats := &models.TemporalFeatures{FrameCount: t.n}
	if t.n < minTemporalN {
		return feats
	}

	n := float64(t.n)
	stds := make([]float64, len(t.sum))
	flicker := 0
	for i := range t.sum {
		mean := t.sum[i] / n
		variance := t.sumSq[i]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		stds[i] = math.Sqrt(variance)
		if stds[i] > flickerStd {
			flicker++
		}
	}

	feats.FlickerFrac = float64(flicker) / float64(len(stds))
	feats.StdP95 = stats.Percentile(stds, 95)
	return feats
}
