package analyzer

// ScanOptions is the fixed configuration record the core recognizes.
type ScanOptions struct {
	// Local-entropy disk radius, valid range 3..31.
	Radius int

	// Video sampling stride, valid range 1..60.
	FrameStride int

	// Fraction of z-score pixels selected as the anomaly mask,
	// valid range 0.001..0.2.
	OverlayTopP float64

	// Feature toggles
	FaceROI      bool
	JPEGAnalysis bool
	Legend       bool

	// Processing resolution cap on the longer side; 0 disables
	// downscaling.
	DownscaleMax int

	// Debug artifacts
	SaveDebugMaps bool

	// Performance options
	UseWorkerPool bool
	MaxWorkers    int
}

// DefaultOptions returns the default scan options.
func DefaultOptions() ScanOptions {
	return ScanOptions{
		Radius:        7,
		FrameStride:   10,
		OverlayTopP:   0.02,
		FaceROI:       true,
		JPEGAnalysis:  true,
		Legend:        true,
		DownscaleMax:  960,
		SaveDebugMaps: false,
		UseWorkerPool: true,
		MaxWorkers:    0, // default CPU count
	}
}

// FastOptions returns options for fast analysis: no face ROI, no JPEG
// forensics, aggressive downscale.
func FastOptions() ScanOptions {
	opts := DefaultOptions()
	opts.FaceROI = false
	opts.JPEGAnalysis = false
	opts.Legend = false
	opts.DownscaleMax = 480
	return opts
}

// WithRadius returns options with a clamped entropy radius.
func (opts ScanOptions) WithRadius(radius int) ScanOptions {
	opts.Radius = clampInt(radius, 3, 31)
	return opts
}

// WithFrameStride returns options with a clamped video stride.
func (opts ScanOptions) WithFrameStride(stride int) ScanOptions {
	opts.FrameStride = clampInt(stride, 1, 60)
	return opts
}

// WithOverlayTopP returns options with a clamped anomaly fraction.
func (opts ScanOptions) WithOverlayTopP(p float64) ScanOptions {
	if p < 0.001 {
		p = 0.001
	}
	if p > 0.2 {
		p = 0.2
	}
	opts.OverlayTopP = p
	return opts
}

// Normalized returns a copy with every field forced into its valid
// range, so a hand-built options value cannot degenerate the analyzers.
func (opts ScanOptions) Normalized() ScanOptions {
	out := opts.WithRadius(opts.Radius).WithFrameStride(opts.FrameStride).WithOverlayTopP(opts.OverlayTopP)
	if out.DownscaleMax < 0 {
		out.DownscaleMax = 0
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
