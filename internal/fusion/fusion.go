package fusion

import (
	"math"

	"go-entropy-forensics/pkg/models"
)

// Fixed component weights, summing to 1.0. When a component's signal
// is absent (no face, not a JPEG, still image) it contributes 0 and
// the weights are NOT renormalized: absence suppresses the score
// rather than inflating the remaining signals.
var weights = map[string]float64{
	"face_coverage":  0.18,
	"face_intensity": 0.12,
	"boundary_grad":  0.08,
	"glint":          0.05,
	"hotspot":        0.12,
	"channel_div":    0.07,
	"edge_ratio":     0.06,
	"temporal":       0.12,
	"byte_entropy":   0.05,
	"dct_bands":      0.08,
	"benford":        0.05,
	"quantization":   0.02,
}

// Calibration bonus: up to +0.15 scaled by overlay anomaly coverage.
// Empirical tuning constant kept for behavioral compatibility; treat
// as a tunable, not a derived quantity.
const (
	bonusMax      = 0.15
	bonusCoverRef = 0.1
)

// ScoreFusion combines the feature set into a calibrated 0-10 score.
type ScoreFusion struct{}

// NewScoreFusion creates the fusion stage.
func NewScoreFusion() *ScoreFusion {
	return &ScoreFusion{}
}

// Fuse normalizes each raw statistic into [0,1], applies the fixed
// weight table plus the coverage bonus, and returns the final score
// with its full breakdown.
func (f *ScoreFusion) Fuse(feats models.FeatureSet, overlayCoverage float64) (float64, models.ScoreBreakdown) {
	comps := map[string]float64{
		"face_coverage":  0,
		"face_intensity": 0,
		"boundary_grad":  0,
		"glint":          0,
		"hotspot":        norm(feats.Entropy.HotspotFrac / 0.06),
		"channel_div":    norm((feats.Entropy.JSDivYCb + feats.Entropy.JSDivYCr) / 2 / 0.12),
		"edge_ratio":     norm((feats.Entropy.EdgeFlatRatio - 1.1) / 0.5),
		"temporal":       0,
		"byte_entropy":   norm(feats.Bytes.HighFrac / 0.4),
		"dct_bands":      0,
		"benford":        0,
		"quantization":   0,
	}

	if face := feats.Face; face != nil {
		comps["face_coverage"] = norm(face.HotspotCover / 0.15)
		comps["face_intensity"] = norm(face.HotspotMean / 1.5)
		comps["boundary_grad"] = norm((face.BoundaryGrad - 0.05) / 0.25)
		comps["glint"] = norm(0.5*face.GlintAsym + 0.5*math.Min(1, face.GlintIrreg/0.6))
	}

	if jp := feats.JPEG; jp != nil {
		comps["benford"] = norm((jp.BenfordChi2 - 2.0) / 6.0)
		// Both frequency-domain terms are gated on is_jpeg so a
		// non-JPEG still passed with JPEG analysis enabled cannot
		// contribute encoder-fingerprint signal.
		if jp.IsJPEG {
			comps["dct_bands"] = norm(dctBandGap(jp.BandEntropy) / 2.0)
			if jp.QTables != nil {
				comps["quantization"] = norm(math.Abs(jp.QTables.Std-20.0) / 25.0)
			}
		} else {
			comps["benford"] = 0
		}
	}

	if tmp := feats.Temporal; tmp != nil {
		comps["temporal"] = norm(0.5*(tmp.FlickerFrac/0.1) + 0.5*(tmp.StdP95/30.0))
	}

	var sum float64
	for name, w := range weights {
		sum += w * comps[name]
	}

	bonus := bonusMax * math.Min(1, sanitize(overlayCoverage)/bonusCoverRef)
	total := sum + bonus
	if total < 0 {
		total = 0
	}
	if total > 1 {
		total = 1
	}
	score := math.Round(total*100) / 10

	breakdown := models.ScoreBreakdown{
		Weights:    copyTable(weights),
		Components: comps,
		Bonus:      bonus,
	}
	return score, breakdown
}

// dctBandGap is the low-minus-high sub-band entropy gap; recompressed
// or synthesized content tends to lose high-frequency entropy.
func dctBandGap(bands []float64) float64 {
	if len(bands) < 2 {
		return 0
	}
	gap := bands[0] - bands[len(bands)-1]
	if gap < 0 {
		return 0
	}
	return gap
}

// norm clamps a normalized component into [0,1], flattening NaN/Inf
// to 0 so a degenerate statistic cannot poison the score.
func norm(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func copyTable(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
