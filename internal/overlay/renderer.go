package overlay

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/stat"

	"go-entropy-forensics/internal/imaging"
	"go-entropy-forensics/pkg/models"
)

const (
	frameOpacity   = 0.65 // original frame share in the blend
	heatOpacity    = 0.35
	boxThickness   = 2
	glintMarkerLen = 3

	glintMinArea = 4
	glintMaxArea = 150
)

var (
	contourColor = color.RGBA{R: 255, G: 64, B: 32, A: 255}
	faceColor    = color.RGBA{R: 64, G: 220, B: 96, A: 255}
	glintColor   = color.RGBA{R: 255, G: 230, B: 60, A: 255}
	legendText   = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	legendBack   = color.RGBA{R: 20, G: 20, B: 20, A: 200}
)

// Frame bundles everything the renderer needs for one image: the
// native-resolution frame, the processing-resolution z-score map, the
// downscale factor that separates the two, and the detected faces in
// processing coordinates.
type Frame struct {
	Native image.Image
	ZMap   *imaging.FloatMap
	Scale  float64
	Faces  []models.FaceBox
}

// Renderer produces the diagnostic overlay: a cold-to-hot heatmap
// blended over the native frame, anomaly contours from the top-p
// z-score mask, face boxes, glint markers and an optional legend.
type Renderer struct {
	topP   float64
	legend bool
	glints bool
}

// NewRenderer creates a renderer selecting the topP fraction of
// z-score pixels as the anomaly mask.
func NewRenderer(topP float64, legend, glints bool) *Renderer {
	if topP < 0.001 {
		topP = 0.001
	}
	if topP > 0.2 {
		topP = 0.2
	}
	return &Renderer{topP: topP, legend: legend, glints: glints}
}

// Render draws the overlay and reports the anomaly contour count and
// the coverage fraction of native pixels inside the opened mask.
func (r *Renderer) Render(f Frame) (*image.RGBA, models.OverlayInfo) {
	bounds := f.Native.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), f.Native, bounds.Min, draw.Src)

	norm, ok := upsampleNormalized(f.ZMap, w, h)
	info := models.OverlayInfo{}
	if ok {
		blendHeatmap(out, norm)

		mask := topPMask(norm, r.topP)
		opened := open3x3(mask)
		info.Coverage = float64(opened.Count()) / float64(w*h)
		info.ContourCount = drawContours(out, opened)
	}

	scale := f.Scale
	if scale <= 0 {
		scale = 1
	}
	for _, box := range f.Faces {
		nb := rescaleBox(box, 1/scale, w, h)
		drawRect(out, nb, faceColor, boxThickness)
		if r.glints {
			drawGlintMarkers(out, f.Native, nb, scale)
		}
	}

	if r.legend {
		drawLegend(out)
	}
	return out, info
}

// AnomalyMap renders the processing-resolution z map as an 8-bit
// grayscale debug artifact.
func (r *Renderer) AnomalyMap(z *imaging.FloatMap) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, z.W, z.H))
	lo, hi := mapRange(z.Pix)
	span := hi - lo
	if span <= 0 {
		return img
	}
	for i, v := range z.Pix {
		img.Pix[i] = uint8(math.Round((v - lo) / span * 255))
	}
	return img
}

// SavePNG writes the image to path.
func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

// upsampleNormalized rescales the z map to native resolution through a
// 16-bit intermediate raster. Returns ok=false for a degenerate
// (constant) map, which yields no heatmap and no anomalies.
func upsampleNormalized(z *imaging.FloatMap, w, h int) (*imaging.FloatMap, bool) {
	if z == nil || len(z.Pix) == 0 || w <= 0 || h <= 0 {
		return nil, false
	}
	lo, hi := mapRange(z.Pix)
	span := hi - lo
	if span <= 0 {
		return nil, false
	}

	src := image.NewGray16(image.Rect(0, 0, z.W, z.H))
	for i, v := range z.Pix {
		g := uint16(math.Round((v - lo) / span * 65535))
		src.Pix[2*i] = uint8(g >> 8)
		src.Pix[2*i+1] = uint8(g)
	}

	dst := image.NewGray16(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	norm := imaging.NewFloatMap(w, h)
	for i := range norm.Pix {
		g := uint16(dst.Pix[2*i])<<8 | uint16(dst.Pix[2*i+1])
		norm.Pix[i] = float64(g) / 65535
	}
	return norm, true
}

func mapRange(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// topPMask selects pixels at or above the (1-topP) quantile.
func topPMask(norm *imaging.FloatMap, topP float64) *imaging.BoolMap {
	sorted := make([]float64, len(norm.Pix))
	copy(sorted, norm.Pix)
	sort.Float64s(sorted)
	thr := stat.Quantile(1-topP, stat.LinInterp, sorted, nil)

	mask := imaging.NewBoolMap(norm.W, norm.H)
	for i, v := range norm.Pix {
		mask.Pix[i] = v >= thr && v > sorted[0]
	}
	return mask
}

// open3x3 applies one erosion followed by one dilation to suppress
// single-pixel speckle.
func open3x3(mask *imaging.BoolMap) *imaging.BoolMap {
	eroded := morph3x3(mask, true)
	return morph3x3(eroded, false)
}

func morph3x3(mask *imaging.BoolMap, erode bool) *imaging.BoolMap {
	w, h := mask.W, mask.H
	out := imaging.NewBoolMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := erode
			for dy := -1; dy <= 1 && v == erode; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					inside := nx >= 0 && nx < w && ny >= 0 && ny < h
					set := inside && mask.At(nx, ny)
					if erode && !set {
						v = false
						break
					}
					if !erode && set {
						v = true
						break
					}
				}
			}
			out.Set(x, y, v)
		}
	}
	return out
}

// drawContours paints mask boundary pixels and returns the number of
// 4-connected anomaly regions.
func drawContours(img *image.RGBA, mask *imaging.BoolMap) int {
	w, h := mask.W, mask.H
	visited := make([]bool, w*h)
	queue := make([]int, 0, 256)
	count := 0

	for start := range mask.Pix {
		if !mask.Pix[start] || visited[start] {
			continue
		}
		count++
		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			boundary := false
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h || !mask.At(nx, ny) {
					boundary = true
					continue
				}
				n := ny*w + nx
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
			if boundary {
				img.SetRGBA(x, y, contourColor)
			}
		}
	}
	return count
}

// blendHeatmap overlays the cold-to-hot ramp of the normalized map at
// fixed opacity.
func blendHeatmap(img *image.RGBA, norm *imaging.FloatMap) {
	for y := 0; y < norm.H; y++ {
		for x := 0; x < norm.W; x++ {
			hr, hg, hb := coldToHot(norm.At(x, y))
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: blend(c.R, hr),
				G: blend(c.G, hg),
				B: blend(c.B, hb),
				A: 255,
			})
		}
	}
}

func blend(base, heat uint8) uint8 {
	return uint8(math.Round(frameOpacity*float64(base) + heatOpacity*float64(heat)))
}

// coldToHot maps t in [0,1] through blue, cyan, green, yellow, red.
func coldToHot(t float64) (r, g, b uint8) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	seg := t * 4
	switch {
	case seg < 1:
		return 0, ramp(seg), 255
	case seg < 2:
		return 0, 255, ramp(2 - seg)
	case seg < 3:
		return ramp(seg - 2), 255, 0
	default:
		return 255, ramp(4 - seg), 0
	}
}

func ramp(t float64) uint8 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return uint8(math.Round(t * 255))
}

func rescaleBox(b models.FaceBox, factor float64, w, h int) models.FaceBox {
	x0 := int(math.Round(float64(b.X) * factor))
	y0 := int(math.Round(float64(b.Y) * factor))
	x1 := int(math.Round(float64(b.X+b.Width) * factor))
	y1 := int(math.Round(float64(b.Y+b.Height) * factor))
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

func drawRect(img *image.RGBA, b models.FaceBox, c color.RGBA, thickness int) {
	for t := 0; t < thickness; t++ {
		x0, y0 := b.X+t, b.Y+t
		x1, y1 := b.X+b.Width-1-t, b.Y+b.Height-1-t
		if x1 <= x0 || y1 <= y0 {
			return
		}
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y0, c)
			img.SetRGBA(x, y1, c)
		}
		for y := y0; y <= y1; y++ {
			img.SetRGBA(x0, y, c)
			img.SetRGBA(x1, y, c)
		}
	}
}

// drawGlintMarkers re-thresholds brightness inside the native face box
// and marks each small bright region with a cross. Area bounds scale
// with the square of the upsample factor so processing-resolution
// limits carry over.
func drawGlintMarkers(img *image.RGBA, native image.Image, box models.FaceBox, scale float64) {
	if box.Width <= 0 || box.Height <= 0 {
		return
	}
	min := native.Bounds().Min

	vals := make([]float64, 0, box.Width*box.Height)
	for y := box.Y; y < box.Y+box.Height; y++ {
		for x := box.X; x < box.X+box.Width; x++ {
			vals = append(vals, brightness(native.At(min.X+x, min.Y+y)))
		}
	}
	mean := stat.Mean(vals, nil)
	std := math.Sqrt(stat.Variance(vals, nil))
	thr := mean + 1.2*std
	if thr < 200 {
		thr = 200
	}

	mask := imaging.NewBoolMap(box.Width, box.Height)
	for i, v := range vals {
		mask.Pix[i] = v > thr
	}

	factor := 1 / (scale * scale)
	minArea := int(float64(glintMinArea) * factor)
	maxArea := int(float64(glintMaxArea) * factor)
	if minArea < glintMinArea {
		minArea = glintMinArea
	}

	for _, cen := range componentCentroids(mask, minArea, maxArea) {
		cx, cy := box.X+cen[0], box.Y+cen[1]
		for d := -glintMarkerLen; d <= glintMarkerLen; d++ {
			setClipped(img, cx+d, cy, glintColor)
			setClipped(img, cx, cy+d, glintColor)
		}
	}
}

func brightness(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	v := r
	if g > v {
		v = g
	}
	if b > v {
		v = b
	}
	return float64(v >> 8)
}

func componentCentroids(mask *imaging.BoolMap, minArea, maxArea int) [][2]int {
	w, h := mask.W, mask.H
	visited := make([]bool, w*h)
	queue := make([]int, 0, 64)
	var centers [][2]int

	for start := range mask.Pix {
		if !mask.Pix[start] || visited[start] {
			continue
		}
		area := 0
		sumX, sumY := 0, 0

		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w
			area++
			sumX += x
			sumY += y

			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := ny*w + nx
				if mask.Pix[n] && !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		if area >= minArea && area <= maxArea {
			centers = append(centers, [2]int{sumX / area, sumY / area})
		}
	}
	return centers
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	img.SetRGBA(x, y, c)
}

// drawLegend anchors a small key panel to the bottom-left corner.
func drawLegend(img *image.RGBA) {
	lines := []struct {
		swatch color.RGBA
		label  string
	}{
		{contourColor, "anomaly contour"},
		{faceColor, "face region"},
		{glintColor, "glint marker"},
	}

	const (
		pad        = 6
		lineH      = 14
		swatchSize = 8
		panelW     = 140
	)
	h := img.Rect.Dy()
	panelH := pad*2 + lineH*len(lines)
	x0 := pad
	y0 := h - panelH - pad
	if y0 < 0 {
		return
	}

	for y := y0; y < y0+panelH; y++ {
		for x := x0; x < x0+panelW; x++ {
			setClipped(img, x, y, legendBack)
		}
	}

	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(legendText),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		ly := y0 + pad + i*lineH
		for dy := 0; dy < swatchSize; dy++ {
			for dx := 0; dx < swatchSize; dx++ {
				setClipped(img, x0+pad+dx, ly+2+dy, line.swatch)
			}
		}
		drawer.Dot = fixed.P(x0+pad+swatchSize+6, ly+11)
		drawer.DrawString(line.label)
	}
}
