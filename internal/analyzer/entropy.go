package analyzer

import (
	"math"

	"go-entropy-forensics/internal/imaging"
	"go-entropy-forensics/internal/stats"
	"go-entropy-forensics/pkg/models"
)

const (
	entropyBins    = 32  // summary histogram bins over [0, 8] bits
	hotspotZ       = 2.5 // global hotspot threshold
	neutralDefault = 1.0 // edge/flat statistics with an empty mask
	ratioEps       = 1e-6
)

// EntropyResult carries the summary features plus the intermediate
// maps consumed by the face analyzer and the overlay renderer.
type EntropyResult struct {
	Features models.EntropyFeatures

	// YMap is the local-entropy map of the luma channel.
	YMap *imaging.FloatMap

	// ZMap is the z-scored YMap feeding hotspot and overlay logic.
	ZMap *imaging.FloatMap
}

// LocalEntropyAnalyzer computes windowed Shannon entropy over a
// disk-shaped neighborhood for each of the Y, Cb and Cr planes.
type LocalEntropyAnalyzer struct {
	radius  int
	offsets [][2]int
}

// NewLocalEntropyAnalyzer builds an analyzer for the given disk
// radius; out-of-range radii are clamped to [3, 31].
func NewLocalEntropyAnalyzer(radius int) *LocalEntropyAnalyzer {
	radius = clampInt(radius, 3, 31)
	var offsets [][2]int
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				offsets = append(offsets, [2]int{dx, dy})
			}
		}
	}
	return &LocalEntropyAnalyzer{radius: radius, offsets: offsets}
}

// EntropyMap computes the per-pixel local entropy of an 8-bit plane.
// The disk is clipped at the borders.
func (a *LocalEntropyAnalyzer) EntropyMap(plane *imaging.Plane) *imaging.FloatMap {
	out := imaging.NewFloatMap(plane.W, plane.H)

	var hist [256]int
	for y := 0; y < plane.H; y++ {
		for x := 0; x < plane.W; x++ {
			n := 0
			for _, off := range a.offsets {
				px, py := x+off[0], y+off[1]
				if px < 0 || px >= plane.W || py < 0 || py >= plane.H {
					continue
				}
				hist[plane.Pix[py*plane.W+px]]++
				n++
			}
			if n > 0 {
				// H = log2(n) - (1/n) * sum c*log2(c)
				var acc float64
				for _, off := range a.offsets {
					px, py := x+off[0], y+off[1]
					if px < 0 || px >= plane.W || py < 0 || py >= plane.H {
						continue
					}
					c := hist[plane.Pix[py*plane.W+px]]
					if c > 0 {
						acc += float64(c) * math.Log2(float64(c))
						hist[plane.Pix[py*plane.W+px]] = 0
					}
				}
				out.Set(x, y, math.Log2(float64(n))-acc/float64(n))
			}
		}
	}
	return out
}

// Analyze produces the channel statistics, divergence features,
// edge/flat separation and the global hotspot fraction.
func (a *LocalEntropyAnalyzer) Analyze(yp, cb, cr *imaging.Plane, edges *imaging.BoolMap) *EntropyResult {
	yMap := a.EntropyMap(yp)
	cbMap := a.EntropyMap(cb)
	crMap := a.EntropyMap(cr)

	feats := models.EntropyFeatures{
		Y:  channelStats(yMap),
		Cb: channelStats(cbMap),
		Cr: channelStats(crMap),
	}
	feats.JSDivYCb = stats.JSDivergence(feats.Y.Histogram, feats.Cb.Histogram)
	feats.JSDivYCr = stats.JSDivergence(feats.Y.Histogram, feats.Cr.Histogram)

	feats.EdgeMean, feats.FlatMean, feats.EdgeFlatRatio = edgeFlatSplit(yMap, edges)

	zMap, hotspotFrac := zScore(yMap, feats.Y.Mean, feats.Y.Std)
	feats.HotspotFrac = hotspotFrac

	return &EntropyResult{Features: feats, YMap: yMap, ZMap: zMap}
}

func channelStats(m *imaging.FloatMap) models.ChannelStats {
	hist := make([]float64, entropyBins)
	for _, v := range m.Pix {
		bin := int(v / 8.0 * entropyBins)
		if bin < 0 {
			bin = 0
		}
		if bin >= entropyBins {
			bin = entropyBins - 1
		}
		hist[bin]++
	}
	return models.ChannelStats{
		Mean:      stats.Mean(m.Pix),
		Std:       stats.Std(m.Pix),
		Histogram: hist,
	}
}

// edgeFlatSplit separates entropy over edge and flat regions. With an
// empty edge or flat mask all three statistics default to the neutral
// 1.0.
func edgeFlatSplit(yMap *imaging.FloatMap, edges *imaging.BoolMap) (edgeMean, flatMean, ratio float64) {
	if edges == nil || len(edges.Pix) != len(yMap.Pix) {
		return neutralDefault, neutralDefault, neutralDefault
	}
	var edgeSum, flatSum float64
	edgeN, flatN := 0, 0
	for i, isEdge := range edges.Pix {
		if isEdge {
			edgeSum += yMap.Pix[i]
			edgeN++
		} else {
			flatSum += yMap.Pix[i]
			flatN++
		}
	}
	if edgeN == 0 || flatN == 0 {
		return neutralDefault, neutralDefault, neutralDefault
	}
	edgeMean = edgeSum / float64(edgeN)
	flatMean = flatSum / float64(flatN)
	ratio = (edgeMean + ratioEps) / (flatMean + ratioEps)
	return edgeMean, flatMean, ratio
}

func zScore(m *imaging.FloatMap, mean, std float64) (*imaging.FloatMap, float64) {
	z := imaging.NewFloatMap(m.W, m.H)
	hot := 0
	denom := std + ratioEps
	for i, v := range m.Pix {
		zv := (v - mean) / denom
		z.Pix[i] = zv
		if zv > hotspotZ {
			hot++
		}
	}
	frac := 0.0
	if len(m.Pix) > 0 {
		frac = float64(hot) / float64(len(m.Pix))
	}
	return z, frac
}
