package models

import "time"

// MediaKind identifies the input media path taken by the orchestrator.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// FaceBox is an axis-aligned rectangle in processing-resolution
// coordinates. It must be rescaled by 1/scale before drawing on the
// native-resolution frame.
type FaceBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the pixel area of the box.
func (b FaceBox) Area() int { return b.Width * b.Height }

// ChannelStats holds the per-channel local-entropy summary.
type ChannelStats struct {
	Mean      float64   `json:"mean"`
	Std       float64   `json:"std"`
	Histogram []float64 `json:"histogram"` // 32 bins over [0,8] bits
}

// EntropyFeatures is the output of the local-entropy analyzer.
type EntropyFeatures struct {
	Y  ChannelStats `json:"y"`
	Cb ChannelStats `json:"cb"`
	Cr ChannelStats `json:"cr"`

	JSDivYCb float64 `json:"js_div_y_cb"`
	JSDivYCr float64 `json:"js_div_y_cr"`

	EdgeMean      float64 `json:"edge_mean"`
	FlatMean      float64 `json:"flat_mean"`
	EdgeFlatRatio float64 `json:"edge_flat_ratio"`

	// Fraction of Y-entropy pixels with z-score above 2.5.
	HotspotFrac float64 `json:"hotspot_frac"`
}

// FaceFeatures holds ROI-dependent statistics. The whole block is
// absent from the FeatureSet when no face was detected; absence means
// "no face", never "zero anomaly".
type FaceFeatures struct {
	Box FaceBox `json:"box"`

	EntropyMean   float64 `json:"entropy_mean"`
	RingMean      float64 `json:"ring_mean"`
	EntropyDelta  float64 `json:"entropy_delta"`
	HotspotCover  float64 `json:"hotspot_coverage"`
	HotspotMean   float64 `json:"hotspot_intensity"`
	BoundaryGrad  float64 `json:"boundary_gradient"`
	GlintAsym     float64 `json:"glint_asymmetry"`
	GlintIrreg    float64 `json:"glint_irregularity"`
	GlintCount    int     `json:"glint_count"`
}

// JPEGFeatures holds still-only frequency-domain statistics.
type JPEGFeatures struct {
	IsJPEG bool `json:"is_jpeg"`

	// Shannon entropy of the |coefficient| histogram per diagonal
	// AC frequency band, band 1 lowest.
	BandEntropy []float64 `json:"band_entropy,omitempty"`

	BenfordChi2 float64 `json:"benford_chi2"`

	QTables *QTableFingerprint `json:"qtables"`
}

// QTableFingerprint summarizes the quantization tables of a JPEG file.
type QTableFingerprint struct {
	SHA1  string  `json:"sha1"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// ByteFeatures holds sliding-window entropy over the raw file bytes.
type ByteFeatures struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	P95      float64 `json:"p95"`
	HighFrac float64 `json:"high_frac"` // windows above 7.5 bits
}

// TemporalFeatures holds per-pixel variance statistics across sampled
// video frames.
type TemporalFeatures struct {
	FlickerFrac float64 `json:"flicker_frac"`
	StdP95      float64 `json:"std_p95"`
	FrameCount  int     `json:"frame_count"`
}

// FeatureSet is the canonical intermediate representation passed from
// the analyzers into score fusion. Optional sub-blocks are present
// only when applicable.
type FeatureSet struct {
	Entropy  EntropyFeatures   `json:"entropy"`
	Bytes    ByteFeatures      `json:"bytes"`
	Face     *FaceFeatures     `json:"face,omitempty"`
	JPEG     *JPEGFeatures     `json:"jpeg,omitempty"`
	Temporal *TemporalFeatures `json:"temporal,omitempty"`
}

// ScoreBreakdown pairs the fixed weight table with the per-component
// normalized values, for auditability.
type ScoreBreakdown struct {
	Weights    map[string]float64 `json:"weights"`
	Components map[string]float64 `json:"components"`
	Bonus      float64            `json:"bonus"`
}

// OverlayInfo describes the rendered diagnostic overlay.
type OverlayInfo struct {
	Path         string  `json:"path,omitempty"`
	ContourCount int     `json:"contour_count"`
	Coverage     float64 `json:"coverage"`
}

// ScanResult is the top-level aggregate produced once per invocation.
type ScanResult struct {
	InputPath   string         `json:"input_path"`
	Kind        MediaKind      `json:"kind"`
	Timestamp   time.Time      `json:"timestamp"`
	ElapsedSec  float64        `json:"elapsed_sec"`
	Features    FeatureSet     `json:"features"`
	Overlay     OverlayInfo    `json:"overlay"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Score       float64        `json:"score"`
	DetectorTag string         `json:"detector"`

	// Warnings lists result-validation findings. The scan still
	// succeeded; downstream consumers decide how much to trust it.
	Warnings []string `json:"warnings,omitempty"`
}
