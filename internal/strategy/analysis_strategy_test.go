package strategy

import (
	"testing"

	"go-entropy-forensics/internal/analyzer"
)

func TestForProfile(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "balanced", false},
		{"balanced", "balanced", false},
		{"thorough", "thorough", false},
		{"fast", "fast", false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		strat, err := ForProfile(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForProfile(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ForProfile(%q): %v", tt.name, err)
		}
		if got := strat.GetStrategyName(); got != tt.want {
			t.Errorf("ForProfile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestThoroughStrategy_TightensMask(t *testing.T) {
	opts := NewThoroughStrategy().Apply(analyzer.DefaultOptions())

	if opts.OverlayTopP != 0.01 {
		t.Errorf("OverlayTopP = %g, want 0.01", opts.OverlayTopP)
	}
	if opts.FrameStride != 5 {
		t.Errorf("FrameStride = %d, want 5", opts.FrameStride)
	}
	if !opts.FaceROI || !opts.JPEGAnalysis {
		t.Error("thorough profile must enable face and JPEG analysis")
	}
}

func TestFastStrategy_DisablesExpensiveAnalyzers(t *testing.T) {
	base := analyzer.DefaultOptions()
	opts := NewFastStrategy().Apply(base)

	if opts.FaceROI {
		t.Error("fast profile must disable face analysis")
	}
	if opts.JPEGAnalysis {
		t.Error("fast profile must disable JPEG forensics")
	}
	if opts.FrameStride != base.FrameStride*2 {
		t.Errorf("FrameStride = %d, want %d", opts.FrameStride, base.FrameStride*2)
	}
	if opts.DownscaleMax != 480 {
		t.Errorf("DownscaleMax = %d, want 480", opts.DownscaleMax)
	}
}
