package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-entropy-forensics/pkg/models"
)

func cleanResult() *models.ScanResult {
	return &models.ScanResult{
		InputPath:  "sample.png",
		Kind:       models.MediaImage,
		ElapsedSec: 0.5,
		Features: models.FeatureSet{
			Entropy: models.EntropyFeatures{
				Y:             models.ChannelStats{Mean: 4.2, Std: 1.1, Histogram: []float64{0.5, 0.5}},
				Cb:            models.ChannelStats{Mean: 2.1, Std: 0.4, Histogram: []float64{1, 0}},
				Cr:            models.ChannelStats{Mean: 2.0, Std: 0.3, Histogram: []float64{0, 1}},
				EdgeFlatRatio: 1.3,
				HotspotFrac:   0.02,
			},
			Bytes: models.ByteFeatures{Mean: 6.5, Std: 0.4, P95: 7.2, HighFrac: 0.1},
		},
		Overlay: models.OverlayInfo{Coverage: 0.015},
		Score:   2.4,
	}
}

func TestValidate_CleanResultHasNoIssues(t *testing.T) {
	issues := NewResultValidator().Validate(cleanResult())
	assert.Empty(t, issues)
}

func TestValidate_NonFiniteScalarIsError(t *testing.T) {
	result := cleanResult()
	result.Features.Entropy.JSDivYCb = math.NaN()

	rv := NewResultValidator()
	issues := rv.Validate(result)

	require.Len(t, issues, 1)
	assert.Equal(t, "non_finite", issues[0].Type)
	assert.Equal(t, "entropy.js_div_y_cb", issues[0].Field)
	assert.True(t, rv.HasCriticalIssues(issues))
}

func TestValidate_OptionalBlocksAreChecked(t *testing.T) {
	result := cleanResult()
	result.Features.Face = &models.FaceFeatures{BoundaryGrad: math.Inf(1)}
	result.Features.JPEG = &models.JPEGFeatures{
		IsJPEG:      true,
		BandEntropy: []float64{4.0, math.NaN(), 2.0},
	}

	issues := NewResultValidator().Validate(result)

	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	assert.Contains(t, fields, "face.boundary_grad")
	assert.Contains(t, fields, "jpeg.band_entropy[1]")
}

func TestValidate_OutOfRangeIsWarning(t *testing.T) {
	result := cleanResult()
	result.Score = 11.5
	result.Overlay.Coverage = 1.2

	rv := NewResultValidator()
	issues := rv.Validate(result)

	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, "warning", issue.Severity)
	}
	assert.False(t, rv.HasCriticalIssues(issues))

	messages := rv.ConvertIssuesToMessages(issues)
	assert.Len(t, messages, 2)
}
