package imaging

// FloatMap is a dense 2D float64 raster shared by the analyzers for
// entropy, gradient and z-score maps.
type FloatMap struct {
	W, H int
	Pix  []float64
}

// NewFloatMap allocates a zeroed w-by-h map.
func NewFloatMap(w, h int) *FloatMap {
	return &FloatMap{W: w, H: h, Pix: make([]float64, w*h)}
}

// At returns the value at (x, y); callers are responsible for bounds.
func (m *FloatMap) At(x, y int) float64 { return m.Pix[y*m.W+x] }

// Set stores v at (x, y).
func (m *FloatMap) Set(x, y int, v float64) { m.Pix[y*m.W+x] = v }

// BoolMap is a binary raster, used for edge/flat and anomaly masks.
type BoolMap struct {
	W, H int
	Pix  []bool
}

// NewBoolMap allocates a cleared w-by-h mask.
func NewBoolMap(w, h int) *BoolMap {
	return &BoolMap{W: w, H: h, Pix: make([]bool, w*h)}
}

// At returns the mask bit at (x, y).
func (m *BoolMap) At(x, y int) bool { return m.Pix[y*m.W+x] }

// Set stores v at (x, y).
func (m *BoolMap) Set(x, y int, v bool) { m.Pix[y*m.W+x] = v }

// Count returns the number of set bits.
func (m *BoolMap) Count() int {
	n := 0
	for _, b := range m.Pix {
		if b {
			n++
		}
	}
	return n
}
