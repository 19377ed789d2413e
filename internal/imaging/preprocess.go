package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
)

// Plane is an 8-bit single-channel raster in processing resolution.
type Plane struct {
	W, H int
	Pix  []uint8
}

// NewPlane allocates a zeroed plane.
func NewPlane(w, h int) *Plane {
	return &Plane{W: w, H: h, Pix: make([]uint8, w*h)}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) uint8 { return p.Pix[y*p.W+x] }

// ResizeToProcessing scales the frame down so its longer side is at
// most maxDim, returning the resized frame and the applied scale
// factor. maxDim <= 0 disables downscaling; a frame already within the
// limit is returned unchanged with scale 1.0.
func ResizeToProcessing(frame image.Image, maxDim int) (image.Image, float64) {
	b := frame.Bounds()
	longer := b.Dx()
	if b.Dy() > longer {
		longer = b.Dy()
	}
	if maxDim <= 0 || longer <= maxDim {
		return frame, 1.0
	}
	scale := float64(maxDim) / float64(longer)
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), frame, b, xdraw.Over, nil)
	return dst, scale
}

// ToGrayscale converts the frame to an 8-bit grayscale image.
func ToGrayscale(frame image.Image) *image.Gray {
	b := frame.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, frame, b.Min, draw.Src)
	return gray
}

// ToYCbCr splits the frame into unsigned 8-bit Y, Cb and Cr planes.
func ToYCbCr(frame image.Image) (yp, cb, cr *Plane) {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	yp, cb, cr = NewPlane(w, h), NewPlane(w, h), NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
			yy, cbb, crr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			i := y*w + x
			yp.Pix[i] = yy
			cb.Pix[i] = cbb
			cr.Pix[i] = crr
		}
	}
	return yp, cb, cr
}

// ToHSVValue returns the HSV value (brightness) plane scaled to 0..255.
func ToHSVValue(frame image.Image) *Plane {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
			v := r
			if g > v {
				v = g
			}
			if bl > v {
				v = bl
			}
			plane.Pix[y*w+x] = uint8(v >> 8)
		}
	}
	return plane
}

// Median returns the median gray level of the image.
func Median(gray *image.Gray) float64 {
	b := gray.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	vals := make([]int, n)
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			vals[idx] = int(gray.GrayAt(x, y).Y)
			idx++
		}
	}
	sort.Ints(vals)
	if n%2 == 1 {
		return float64(vals[n/2])
	}
	return float64(vals[n/2-1]+vals[n/2]) / 2
}

// GradientMagnitude computes the Sobel gradient magnitude map of the
// grayscale frame. Border pixels are left at zero.
func GradientMagnitude(gray *image.Gray) *FloatMap {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewFloatMap(w, h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -int(gray.GrayAt(b.Min.X+x-1, b.Min.Y+y-1).Y) + int(gray.GrayAt(b.Min.X+x+1, b.Min.Y+y-1).Y) +
				-2*int(gray.GrayAt(b.Min.X+x-1, b.Min.Y+y).Y) + 2*int(gray.GrayAt(b.Min.X+x+1, b.Min.Y+y).Y) +
				-int(gray.GrayAt(b.Min.X+x-1, b.Min.Y+y+1).Y) + int(gray.GrayAt(b.Min.X+x+1, b.Min.Y+y+1).Y)
			gy := -int(gray.GrayAt(b.Min.X+x-1, b.Min.Y+y-1).Y) - 2*int(gray.GrayAt(b.Min.X+x, b.Min.Y+y-1).Y) - int(gray.GrayAt(b.Min.X+x+1, b.Min.Y+y-1).Y) +
				int(gray.GrayAt(b.Min.X+x-1, b.Min.Y+y+1).Y) + 2*int(gray.GrayAt(b.Min.X+x, b.Min.Y+y+1).Y) + int(gray.GrayAt(b.Min.X+x+1, b.Min.Y+y+1).Y)
			out.Set(x, y, math.Sqrt(float64(gx*gx+gy*gy)))
		}
	}
	return out
}
