package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-entropy-forensics/pkg/models"
)

func neutralFeatures() models.FeatureSet {
	return models.FeatureSet{
		Entropy: models.EntropyFeatures{EdgeFlatRatio: 1.0},
	}
}

func maximalFeatures() models.FeatureSet {
	return models.FeatureSet{
		Entropy: models.EntropyFeatures{
			JSDivYCb:      0.5,
			JSDivYCr:      0.5,
			EdgeFlatRatio: 2.0,
			HotspotFrac:   0.1,
		},
		Bytes: models.ByteFeatures{HighFrac: 0.9},
		Face: &models.FaceFeatures{
			HotspotCover: 0.3,
			HotspotMean:  3.0,
			BoundaryGrad: 0.5,
			GlintAsym:    1.0,
			GlintIrreg:   0.8,
		},
		JPEG: &models.JPEGFeatures{
			IsJPEG:      true,
			BandEntropy: []float64{5.5, 4.8, 4.1, 3.4, 2.7, 2.0, 1.3, 0.6},
			BenfordChi2: 12.0,
			QTables:     &models.QTableFingerprint{SHA1: "abc", Count: 2, Mean: 40, Std: 60},
		},
		Temporal: &models.TemporalFeatures{
			FlickerFrac: 0.5,
			StdP95:      60,
			FrameCount:  10,
		},
	}
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFuse_NeutralFeaturesScoreZero(t *testing.T) {
	score, breakdown := NewScoreFusion().Fuse(neutralFeatures(), 0)

	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, breakdown.Bonus)
	for name, v := range breakdown.Components {
		assert.Zerof(t, v, "component %s should be neutral", name)
	}
}

func TestFuse_MaximalFeaturesScoreTen(t *testing.T) {
	score, breakdown := NewScoreFusion().Fuse(maximalFeatures(), 0.2)

	require.Len(t, breakdown.Components, len(weights))
	for name, v := range breakdown.Components {
		assert.InDeltaf(t, 1.0, v, 1e-9, "component %s should saturate", name)
	}
	assert.InDelta(t, 0.15, breakdown.Bonus, 1e-9)
	assert.Equal(t, 10.0, score)
}

func TestFuse_AbsentBlocksDoNotRenormalize(t *testing.T) {
	feats := maximalFeatures()
	feats.Face = nil
	feats.JPEG = nil
	feats.Temporal = nil

	score, breakdown := NewScoreFusion().Fuse(feats, 0)

	// Remaining saturated components: hotspot, channel_div, edge_ratio,
	// byte_entropy, i.e. 0.12+0.07+0.06+0.05 of the total weight.
	assert.Equal(t, 0.0, breakdown.Components["face_coverage"])
	assert.Equal(t, 0.0, breakdown.Components["temporal"])
	assert.InDelta(t, 3.0, score, 1e-9)
}

func TestFuse_NonJPEGGatesFrequencyTerms(t *testing.T) {
	feats := maximalFeatures()
	feats.JPEG.IsJPEG = false

	_, breakdown := NewScoreFusion().Fuse(feats, 0)

	assert.Equal(t, 0.0, breakdown.Components["dct_bands"])
	assert.Equal(t, 0.0, breakdown.Components["quantization"])
	assert.Equal(t, 0.0, breakdown.Components["benford"])
}

func TestFuse_BonusCapped(t *testing.T) {
	_, small := NewScoreFusion().Fuse(neutralFeatures(), 0.05)
	_, capped := NewScoreFusion().Fuse(neutralFeatures(), 5.0)

	assert.InDelta(t, 0.075, small.Bonus, 1e-9)
	assert.InDelta(t, 0.15, capped.Bonus, 1e-9)
}

func TestFuse_NaNStatisticsFlattened(t *testing.T) {
	feats := neutralFeatures()
	feats.Entropy.HotspotFrac = math.NaN()
	feats.Entropy.EdgeFlatRatio = math.Inf(1)

	score, breakdown := NewScoreFusion().Fuse(feats, math.NaN())

	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, breakdown.Components["hotspot"])
	assert.Equal(t, 0.0, breakdown.Components["edge_ratio"])
	assert.Equal(t, 0.0, breakdown.Bonus)
}

func TestFuse_ScoreRounding(t *testing.T) {
	feats := neutralFeatures()
	feats.Entropy.HotspotFrac = 0.03 // hotspot component 0.5 at weight 0.12

	score, _ := NewScoreFusion().Fuse(feats, 0)

	assert.Equal(t, 0.6, score)
}
