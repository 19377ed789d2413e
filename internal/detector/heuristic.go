package detector

import (
	"image"
	"sort"

	"go-entropy-forensics/internal/imaging"
	"go-entropy-forensics/pkg/models"
)

// HeuristicDetector is the degraded fallback used when the ONNX
// runtime is unavailable. It segments skin-toned regions in CbCr space
// and keeps face-shaped connected components.
type HeuristicDetector struct{}

// NewHeuristicDetector creates the fallback detector.
func NewHeuristicDetector() *HeuristicDetector {
	return &HeuristicDetector{}
}

// Tag identifies the detector variant in scan results.
func (d *HeuristicDetector) Tag() string { return "heuristic-skin" }

// Detect returns candidate face boxes ordered by descending area.
func (d *HeuristicDetector) Detect(frame image.Image) ([]models.FaceBox, error) {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 16 || h < 16 {
		return nil, nil
	}

	_, cb, cr := imaging.ToYCbCr(frame)

	skin := imaging.NewBoolMap(w, h)
	for i := range skin.Pix {
		skin.Pix[i] = isSkinChroma(cb.Pix[i], cr.Pix[i])
	}

	boxes := d.componentBoxes(skin, w, h)
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].Area() > boxes[j].Area() })
	return boxes, nil
}

// isSkinChroma uses the classic CbCr skin cluster.
func isSkinChroma(cb, cr uint8) bool {
	return cb >= 77 && cb <= 127 && cr >= 133 && cr <= 173
}

// componentBoxes labels skin components and keeps ones large and
// proportioned enough to be a face.
func (d *HeuristicDetector) componentBoxes(skin *imaging.BoolMap, w, h int) []models.FaceBox {
	minArea := w * h / 200 // 0.5% of the frame
	if minArea < 64 {
		minArea = 64
	}

	visited := make([]bool, w*h)
	queue := make([]int, 0, 1024)
	var boxes []models.FaceBox

	for start := range skin.Pix {
		if !skin.Pix[start] || visited[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := 0, 0
		area := 0

		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			area++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= w*h || visited[n] || !skin.Pix[n] {
					continue
				}
				// Reject horizontal wraparound between rows.
				if (n == idx-1 && x == 0) || (n == idx+1 && x == w-1) {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}

		bw, bh := maxX-minX+1, maxY-minY+1
		if area < minArea || bw < 8 || bh < 8 {
			continue
		}
		aspect := float64(bw) / float64(bh)
		if aspect < 0.4 || aspect > 1.9 {
			continue
		}
		// Require the component to fill a reasonable share of its box.
		if float64(area) < 0.35*float64(bw*bh) {
			continue
		}
		boxes = append(boxes, models.FaceBox{X: minX, Y: minY, Width: bw, Height: bh})
	}
	return boxes
}
