package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const eps = 1e-12

// benford holds the theoretical leading-digit distribution
// log10(1 + 1/d) for d in 1..9.
var benford = func() [9]float64 {
	var p [9]float64
	for d := 1; d <= 9; d++ {
		p[d-1] = math.Log10(1 + 1/float64(d))
	}
	return p
}()

// ShannonEntropy normalizes the histogram to a probability
// distribution and returns -sum p*log2(p) over nonzero bins.
// The result is always >= 0.
func ShannonEntropy(hist []float64) float64 {
	var total float64
	for _, v := range hist {
		total += v + eps
	}
	if total <= 0 {
		return 0
	}
	var h float64
	for _, v := range hist {
		p := (v + eps) / total
		if p > eps {
			h -= p * math.Log2(p)
		}
	}
	if h < 0 {
		return 0
	}
	return h
}

// JSDivergence computes the Jensen-Shannon divergence between two
// histograms. Both are normalized independently; the divergence is the
// symmetric average of KL(A||M) and KL(B||M) restricted to bins where
// both the source and the mean distribution are nonzero. Callers clamp
// downstream where a bounded value is needed.
func JSDivergence(histA, histB []float64) float64 {
	n := len(histA)
	if len(histB) < n {
		n = len(histB)
	}
	if n == 0 {
		return 0
	}
	p := normalize(histA[:n])
	q := normalize(histB[:n])

	var klPM, klQM float64
	for i := 0; i < n; i++ {
		m := 0.5 * (p[i] + q[i])
		if p[i] > eps && m > eps {
			klPM += p[i] * math.Log2(p[i]/m)
		}
		if q[i] > eps && m > eps {
			klQM += q[i] * math.Log2(q[i]/m)
		}
	}
	return 0.5*klPM + 0.5*klQM
}

// BenfordChiSquare compares the leading-digit distribution of the
// values against Benford's law via a chi-square statistic over a
// normalized digit histogram. Near-zero entries are discarded; with no
// valid values left it returns 0.
func BenfordChiSquare(values []float64) float64 {
	var counts [9]float64
	var total float64
	for _, v := range values {
		v = math.Abs(v)
		if v < 1e-6 {
			continue
		}
		digit := int(math.Floor(v / math.Pow(10, math.Floor(math.Log10(v)))))
		if digit < 1 || digit > 9 {
			continue
		}
		counts[digit-1]++
		total++
	}
	if total < 1 {
		return 0
	}
	var chi2 float64
	for d := 0; d < 9; d++ {
		observed := counts[d] / total
		expected := benford[d]
		diff := observed - expected
		chi2 += diff * diff / expected
	}
	return chi2
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Std returns the population standard deviation, 0 for fewer than two
// values.
func Std(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Percentile returns the p-th percentile (0..100) of xs using linear
// interpolation. The input is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}

func normalize(hist []float64) []float64 {
	out := make([]float64, len(hist))
	var total float64
	for _, v := range hist {
		total += v + eps
	}
	for i, v := range hist {
		out[i] = (v + eps) / total
	}
	return out
}
