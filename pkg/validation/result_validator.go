package validation

import (
	"fmt"
	"math"

	"go-entropy-forensics/pkg/models"
)

// ResultThresholds defines configurable bounds for result validation
type ResultThresholds struct {
	MaxScore       float64
	MaxEntropyBits float64 // upper bound for any per-channel entropy value
	MaxCoverage    float64
}

// DefaultResultThresholds returns the default result thresholds
func DefaultResultThresholds() ResultThresholds {
	return ResultThresholds{
		MaxScore:       10.0,
		MaxEntropyBits: 8.0,
		MaxCoverage:    1.0,
	}
}

// ResultIssue represents a single result validation finding
type ResultIssue struct {
	Type        string  `json:"type"`
	Field       string  `json:"field"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
}

// ResultValidator checks a finished scan result for out-of-range or
// non-finite values before it is reported or persisted.
type ResultValidator struct {
	thresholds ResultThresholds
}

// NewResultValidator creates a result validator with default thresholds
func NewResultValidator() *ResultValidator {
	return &ResultValidator{
		thresholds: DefaultResultThresholds(),
	}
}

// NewResultValidatorWithThresholds creates a result validator with custom thresholds
func NewResultValidatorWithThresholds(thresholds ResultThresholds) *ResultValidator {
	return &ResultValidator{
		thresholds: thresholds,
	}
}

// Validate inspects every numeric field of a scan result. Non-finite
// values are errors; out-of-range values are warnings.
func (rv *ResultValidator) Validate(result *models.ScanResult) []ResultIssue {
	var issues []ResultIssue

	for field, value := range rv.collectScalars(result) {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			issues = append(issues, ResultIssue{
				Type:        "non_finite",
				Field:       field,
				Message:     fmt.Sprintf("%s is not a finite number", field),
				Severity:    "error",
				ActualValue: value,
			})
		}
	}

	for field, hist := range rv.collectHistograms(result) {
		for i, v := range hist {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				issues = append(issues, ResultIssue{
					Type:        "non_finite",
					Field:       fmt.Sprintf("%s[%d]", field, i),
					Message:     fmt.Sprintf("%s bin %d is not a finite number", field, i),
					Severity:    "error",
					ActualValue: v,
				})
			}
		}
	}

	if result.Score < 0 || result.Score > rv.thresholds.MaxScore {
		issues = append(issues, ResultIssue{
			Type:        "score_range",
			Field:       "score",
			Message:     fmt.Sprintf("score %.2f outside [0, %.1f]", result.Score, rv.thresholds.MaxScore),
			Severity:    "warning",
			ActualValue: result.Score,
		})
	}

	if result.Overlay.Coverage < 0 || result.Overlay.Coverage > rv.thresholds.MaxCoverage {
		issues = append(issues, ResultIssue{
			Type:        "coverage_range",
			Field:       "overlay.coverage",
			Message:     fmt.Sprintf("overlay coverage %.4f outside [0, %.1f]", result.Overlay.Coverage, rv.thresholds.MaxCoverage),
			Severity:    "warning",
			ActualValue: result.Overlay.Coverage,
		})
	}

	for _, field := range []struct {
		name  string
		value float64
	}{
		{"entropy.y.mean", result.Features.Entropy.Y.Mean},
		{"entropy.cb.mean", result.Features.Entropy.Cb.Mean},
		{"entropy.cr.mean", result.Features.Entropy.Cr.Mean},
	} {
		if field.value > rv.thresholds.MaxEntropyBits {
			issues = append(issues, ResultIssue{
				Type:        "entropy_range",
				Field:       field.name,
				Message:     fmt.Sprintf("%s %.3f exceeds %.1f bits", field.name, field.value, rv.thresholds.MaxEntropyBits),
				Severity:    "warning",
				ActualValue: field.value,
			})
		}
	}

	if result.ElapsedSec < 0 {
		issues = append(issues, ResultIssue{
			Type:        "elapsed_range",
			Field:       "elapsed_sec",
			Message:     "elapsed time is negative",
			Severity:    "warning",
			ActualValue: result.ElapsedSec,
		})
	}

	return issues
}

// collectScalars flattens every scalar feature into a named map so the
// finiteness check covers optional blocks uniformly.
func (rv *ResultValidator) collectScalars(result *models.ScanResult) map[string]float64 {
	ent := result.Features.Entropy
	scalars := map[string]float64{
		"entropy.y.mean":          ent.Y.Mean,
		"entropy.y.std":           ent.Y.Std,
		"entropy.cb.mean":         ent.Cb.Mean,
		"entropy.cb.std":          ent.Cb.Std,
		"entropy.cr.mean":         ent.Cr.Mean,
		"entropy.cr.std":          ent.Cr.Std,
		"entropy.js_div_y_cb":     ent.JSDivYCb,
		"entropy.js_div_y_cr":     ent.JSDivYCr,
		"entropy.edge_mean":       ent.EdgeMean,
		"entropy.flat_mean":       ent.FlatMean,
		"entropy.edge_flat_ratio": ent.EdgeFlatRatio,
		"entropy.hotspot_frac":    ent.HotspotFrac,
		"bytes.mean":              result.Features.Bytes.Mean,
		"bytes.std":               result.Features.Bytes.Std,
		"bytes.p95":               result.Features.Bytes.P95,
		"bytes.high_frac":         result.Features.Bytes.HighFrac,
		"overlay.coverage":        result.Overlay.Coverage,
		"score":                   result.Score,
	}

	if face := result.Features.Face; face != nil {
		scalars["face.entropy_mean"] = face.EntropyMean
		scalars["face.ring_mean"] = face.RingMean
		scalars["face.entropy_delta"] = face.EntropyDelta
		scalars["face.hotspot_cover"] = face.HotspotCover
		scalars["face.hotspot_mean"] = face.HotspotMean
		scalars["face.boundary_grad"] = face.BoundaryGrad
		scalars["face.glint_asym"] = face.GlintAsym
		scalars["face.glint_irreg"] = face.GlintIrreg
	}
	if jp := result.Features.JPEG; jp != nil {
		scalars["jpeg.benford_chi2"] = jp.BenfordChi2
		if jp.QTables != nil {
			scalars["jpeg.qtables.mean"] = jp.QTables.Mean
			scalars["jpeg.qtables.std"] = jp.QTables.Std
		}
	}
	if tmp := result.Features.Temporal; tmp != nil {
		scalars["temporal.flicker_frac"] = tmp.FlickerFrac
		scalars["temporal.std_p95"] = tmp.StdP95
	}
	for name, comp := range result.Breakdown.Components {
		scalars["breakdown.components."+name] = comp
	}
	return scalars
}

func (rv *ResultValidator) collectHistograms(result *models.ScanResult) map[string][]float64 {
	hists := map[string][]float64{
		"entropy.y.histogram":  result.Features.Entropy.Y.Histogram,
		"entropy.cb.histogram": result.Features.Entropy.Cb.Histogram,
		"entropy.cr.histogram": result.Features.Entropy.Cr.Histogram,
	}
	if jp := result.Features.JPEG; jp != nil {
		hists["jpeg.band_entropy"] = jp.BandEntropy
	}
	return hists
}

// ConvertIssuesToMessages converts result issues to plain warning strings
func (rv *ResultValidator) ConvertIssuesToMessages(issues []ResultIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (rv *ResultValidator) HasCriticalIssues(issues []ResultIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
