package imaging

import "image"

// EdgeMask applies a Canny-style detector with thresholds derived from
// the image median: low = 0.66*median, high = 1.33*median, both clamped
// to [0, 255]. Pixels whose Sobel gradient magnitude exceeds the high
// threshold are strong edges; pixels above the low threshold are kept
// when 8-adjacent to a strong edge. The complement of the returned mask
// is the "flat" region.
func EdgeMask(gray *image.Gray) *BoolMap {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := NewBoolMap(w, h)
	if w < 3 || h < 3 {
		return mask
	}

	median := Median(gray)
	low := clamp255(0.66 * median)
	high := clamp255(1.33 * median)

	mag := GradientMagnitude(gray)

	strong := NewBoolMap(w, h)
	weak := NewBoolMap(w, h)
	for i, v := range mag.Pix {
		if v > high {
			strong.Pix[i] = true
		} else if v > low {
			weak.Pix[i] = true
		}
	}

	copy(mask.Pix, strong.Pix)

	// Single hysteresis pass: promote weak pixels touching a strong one.
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if !weak.At(x, y) {
				continue
			}
			for dy := -1; dy <= 1 && !mask.At(x, y); dy++ {
				for dx := -1; dx <= 1; dx++ {
					if strong.At(x+dx, y+dy) {
						mask.Set(x, y, true)
						break
					}
				}
			}
		}
	}
	return mask
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
