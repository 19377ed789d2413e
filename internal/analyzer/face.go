package analyzer

import (
	"image"
	"math"

	"go-entropy-forensics/internal/detector"
	"go-entropy-forensics/internal/imaging"
	"go-entropy-forensics/internal/stats"
	"go-entropy-forensics/pkg/models"
)

const (
	ringExpand    = 0.30 // background ring expansion per side
	ringMinMargin = 10   // minimum ring margin in pixels
	faceHotspotZ  = 2.0  // face-local hotspot threshold
	boundaryPad   = 6    // gradient ring width in pixels

	glintMinArea = 4
	glintMaxArea = 150
)

// FaceRegionAnalyzer derives face-vs-background statistics from the
// detected primary face. The detector is resolved through the shared
// registry, so model loading happens once per process.
type FaceRegionAnalyzer struct {
	registry *detector.Registry
}

// NewFaceRegionAnalyzer creates an analyzer bound to a detector
// registry.
func NewFaceRegionAnalyzer(registry *detector.Registry) *FaceRegionAnalyzer {
	return &FaceRegionAnalyzer{registry: registry}
}

// DetectorTag reports which detector variant ended up in use.
func (a *FaceRegionAnalyzer) DetectorTag() string {
	return a.registry.Detector().Tag()
}

// Analyze detects faces on the processing-resolution frame and, when
// at least one exists, computes the ROI feature block for the largest.
// With zero detections it returns (nil, nil): the ROI block is absent
// from the FeatureSet, not zero-filled.
func (a *FaceRegionAnalyzer) Analyze(frame image.Image, gray *image.Gray, value *imaging.Plane, entY *imaging.FloatMap) (*models.FaceFeatures, []models.FaceBox) {
	boxes, err := a.registry.Detector().Detect(frame)
	if err != nil || len(boxes) == 0 {
		return nil, nil
	}

	primary := boxes[0]
	for _, b := range boxes[1:] {
		if b.Area() > primary.Area() {
			primary = b
		}
	}
	face := clipBox(primary, entY.W, entY.H)
	if face.Width <= 0 || face.Height <= 0 {
		return nil, boxes
	}

	feats := &models.FaceFeatures{Box: face}

	feats.EntropyMean = regionMean(entY, face)
	ring := ringBox(face, entY.W, entY.H)
	feats.RingMean = ringMean(entY, face, ring)
	feats.EntropyDelta = feats.EntropyMean - feats.RingMean

	feats.HotspotCover, feats.HotspotMean = faceHotspots(entY, face)
	feats.BoundaryGrad = boundaryGradientDelta(gray, face)
	feats.GlintAsym, feats.GlintIrreg, feats.GlintCount = glintStats(value, face)

	return feats, boxes
}

func clipBox(b models.FaceBox, w, h int) models.FaceBox {
	x0, y0 := b.X, b.Y
	x1, y1 := b.X+b.Width, b.Y+b.Height
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return models.FaceBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ringBox expands the face box by 30% per side with a minimum margin,
// clipped to the frame.
func ringBox(face models.FaceBox, w, h int) models.FaceBox {
	mx := int(math.Round(ringExpand * float64(face.Width)))
	my := int(math.Round(ringExpand * float64(face.Height)))
	if mx < ringMinMargin {
		mx = ringMinMargin
	}
	if my < ringMinMargin {
		my = ringMinMargin
	}
	return clipBox(models.FaceBox{
		X:      face.X - mx,
		Y:      face.Y - my,
		Width:  face.Width + 2*mx,
		Height: face.Height + 2*my,
	}, w, h)
}

func regionMean(m *imaging.FloatMap, b models.FaceBox) float64 {
	var sum float64
	n := 0
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width; x++ {
			sum += m.At(x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ringMean averages over the ring region excluding the face box.
func ringMean(m *imaging.FloatMap, face, ring models.FaceBox) float64 {
	var sum float64
	n := 0
	for y := ring.Y; y < ring.Y+ring.Height; y++ {
		for x := ring.X; x < ring.X+ring.Width; x++ {
			if x >= face.X && x < face.X+face.Width && y >= face.Y && y < face.Y+face.Height {
				continue
			}
			sum += m.At(x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// faceHotspots z-scores the entropy inside the face with face-local
// mean/std and reports the coverage and mean intensity above z=2.
func faceHotspots(entY *imaging.FloatMap, face models.FaceBox) (coverage, intensity float64) {
	vals := make([]float64, 0, face.Width*face.Height)
	for y := face.Y; y < face.Y+face.Height; y++ {
		for x := face.X; x < face.X+face.Width; x++ {
			vals = append(vals, entY.At(x, y))
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	mean := stats.Mean(vals)
	std := stats.Std(vals)
	denom := std + ratioEps

	var hotSum float64
	hot := 0
	for _, v := range vals {
		z := (v - mean) / denom
		if z > faceHotspotZ {
			hotSum += z
			hot++
		}
	}
	coverage = float64(hot) / float64(len(vals))
	if hot > 0 {
		intensity = hotSum / float64(hot)
	}
	return coverage, intensity
}

// boundaryGradientDelta compares mean gradient magnitude just inside
// the face box against just outside, over a padded 6-pixel ring.
func boundaryGradientDelta(gray *image.Gray, face models.FaceBox) float64 {
	grad := imaging.GradientMagnitude(gray)

	var inSum, outSum float64
	inN, outN := 0, 0

	outer := clipBox(models.FaceBox{
		X:      face.X - boundaryPad,
		Y:      face.Y - boundaryPad,
		Width:  face.Width + 2*boundaryPad,
		Height: face.Height + 2*boundaryPad,
	}, grad.W, grad.H)

	for y := outer.Y; y < outer.Y+outer.Height; y++ {
		for x := outer.X; x < outer.X+outer.Width; x++ {
			inside := x >= face.X && x < face.X+face.Width && y >= face.Y && y < face.Y+face.Height
			if inside {
				// only the band just inside the boundary
				if x < face.X+boundaryPad || x >= face.X+face.Width-boundaryPad ||
					y < face.Y+boundaryPad || y >= face.Y+face.Height-boundaryPad {
					inSum += grad.At(x, y)
					inN++
				}
			} else {
				outSum += grad.At(x, y)
				outN++
			}
		}
	}
	if inN == 0 || outN == 0 {
		return 0
	}
	return inSum/float64(inN) - outSum/float64(outN)
}

// glintStats thresholds the brightness channel within the face crop,
// finds small bright contours and reports their left/right asymmetry
// and shape irregularity.
func glintStats(value *imaging.Plane, face models.FaceBox) (asym, irreg float64, count int) {
	fw, fh := face.Width, face.Height
	if fw <= 0 || fh <= 0 {
		return 0, 0, 0
	}

	crop := make([]float64, 0, fw*fh)
	for y := face.Y; y < face.Y+fh; y++ {
		for x := face.X; x < face.X+fw; x++ {
			crop = append(crop, float64(value.At(x, y)))
		}
	}
	thr := stats.Mean(crop) + 1.2*stats.Std(crop)
	if thr < 200 {
		thr = 200
	}

	bright := imaging.NewBoolMap(fw, fh)
	for i, v := range crop {
		bright.Pix[i] = v > thr
	}

	comps := connectedComponents(bright)
	centerX := float64(fw) / 2

	left, right := 0, 0
	var irregSum float64
	for _, comp := range comps {
		if comp.area < glintMinArea || comp.area > glintMaxArea {
			continue
		}
		count++
		if comp.cx < centerX {
			left++
		} else {
			right++
		}
		if comp.perimeter > 0 {
			circ := 4 * math.Pi * float64(comp.area) / float64(comp.perimeter*comp.perimeter)
			irregSum += math.Abs(1 - circ)
		}
	}
	if count > 0 {
		irreg = irregSum / float64(count)
	}
	total := count
	if total < 1 {
		total = 1
	}
	asym = math.Abs(float64(left-right)) / float64(total)
	return asym, irreg, count
}

type component struct {
	area      int
	perimeter int
	cx        float64
}

// connectedComponents labels 4-connected regions of the mask and
// summarizes area, boundary length and centroid x.
func connectedComponents(mask *imaging.BoolMap) []component {
	w, h := mask.W, mask.H
	visited := make([]bool, w*h)
	queue := make([]int, 0, 256)
	var comps []component

	for start := range mask.Pix {
		if !mask.Pix[start] || visited[start] {
			continue
		}
		var comp component
		var sumX float64

		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			comp.area++
			sumX += float64(x)

			boundary := false
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					boundary = true
					continue
				}
				n := ny*w + nx
				if !mask.Pix[n] {
					boundary = true
					continue
				}
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
			if boundary {
				comp.perimeter++
			}
		}
		comp.cx = sumX / float64(comp.area)
		comps = append(comps, comp)
	}
	return comps
}
