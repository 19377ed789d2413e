package analyzer

import (
	"os"

	"go-entropy-forensics/internal/stats"
	"go-entropy-forensics/pkg/models"
)

const (
	byteWindow   = 2048
	byteStride   = 1024
	highBitsBar  = 7.5 // near-maximal window entropy
)

// ByteEntropyAnalyzer computes sliding-window Shannon entropy over raw
// file bytes, independent of media decoding.
type ByteEntropyAnalyzer struct{}

// NewByteEntropyAnalyzer creates the analyzer.
func NewByteEntropyAnalyzer() *ByteEntropyAnalyzer {
	return &ByteEntropyAnalyzer{}
}

// AnalyzeFile reads the file and analyzes its bytes. Read failures are
// not errors: all statistics default to zero.
func (a *ByteEntropyAnalyzer) AnalyzeFile(path string) models.ByteFeatures {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ByteFeatures{}
	}
	return a.Analyze(data)
}

// Analyze slides a 2048-byte window with stride 1024 and reports the
// mean, std, 95th percentile and near-maximal fraction of per-window
// entropies. Empty input yields all zeros.
func (a *ByteEntropyAnalyzer) Analyze(data []byte) models.ByteFeatures {
	if len(data) == 0 {
		return models.ByteFeatures{}
	}

	var entropies []float64
	hist := make([]float64, 256)

	for start := 0; start == 0 || start+byteWindow <= len(data); start += byteStride {
		end := start + byteWindow
		if end > len(data) {
			end = len(data)
		}
		for i := range hist {
			hist[i] = 0
		}
		for _, b := range data[start:end] {
			hist[b]++
		}
		entropies = append(entropies, stats.ShannonEntropy(hist))
		if end == len(data) {
			break
		}
	}

	high := 0
	for _, h := range entropies {
		if h > highBitsBar {
			high++
		}
	}

	return models.ByteFeatures{
		Mean:     stats.Mean(entropies),
		Std:      stats.Std(entropies),
		P95:      stats.Percentile(entropies, 95),
		HighFrac: float64(high) / float64(len(entropies)),
	}
}
