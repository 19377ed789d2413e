package strategy

import (
	"fmt"

	"go-entropy-forensics/internal/analyzer"
)

// ScanStrategy defines the interface for scan option profiles
type ScanStrategy interface {
	Apply(base analyzer.ScanOptions) analyzer.ScanOptions
	GetStrategyName() string
}

// BalancedStrategy keeps the configured options as they are
type BalancedStrategy struct{}

// NewBalancedStrategy creates a new balanced strategy
func NewBalancedStrategy() ScanStrategy {
	return &BalancedStrategy{}
}

// Apply returns the base options unchanged
func (s *BalancedStrategy) Apply(base analyzer.ScanOptions) analyzer.ScanOptions {
	return base.Normalized()
}

// GetStrategyName returns the strategy name
func (s *BalancedStrategy) GetStrategyName() string {
	return "balanced"
}

// ThoroughStrategy trades speed for sensitivity: tighter anomaly mask,
// wider entropy disk, every sampled frame analyzed.
type ThoroughStrategy struct{}

// NewThoroughStrategy creates a new thorough strategy
func NewThoroughStrategy() ScanStrategy {
	return &ThoroughStrategy{}
}

// Apply enables every analyzer and raises the resolution cap
func (s *ThoroughStrategy) Apply(base analyzer.ScanOptions) analyzer.ScanOptions {
	opts := base
	opts.Radius = 9
	opts.FrameStride = 5
	opts.OverlayTopP = 0.01
	opts.FaceROI = true
	opts.JPEGAnalysis = true
	opts.DownscaleMax = 1440
	return opts.Normalized()
}

// GetStrategyName returns the strategy name
func (s *ThoroughStrategy) GetStrategyName() string {
	return "thorough"
}

// FastStrategy provides quick scans with reduced accuracy
type FastStrategy struct{}

// NewFastStrategy creates a new fast strategy
func NewFastStrategy() ScanStrategy {
	return &FastStrategy{}
}

// Apply disables the expensive analyzers and downscales aggressively
func (s *FastStrategy) Apply(base analyzer.ScanOptions) analyzer.ScanOptions {
	opts := analyzer.FastOptions()
	opts.FrameStride = base.FrameStride * 2
	return opts.Normalized()
}

// GetStrategyName returns the strategy name
func (s *FastStrategy) GetStrategyName() string {
	return "fast"
}

// ForProfile resolves a profile name to its strategy. The empty name
// means balanced.
func ForProfile(name string) (ScanStrategy, error) {
	switch name {
	case "", "balanced":
		return NewBalancedStrategy(), nil
	case "thorough":
		return NewThoroughStrategy(), nil
	case "fast":
		return NewFastStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown scan profile: %s", name)
	}
}
