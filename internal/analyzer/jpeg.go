package analyzer

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"go-entropy-forensics/internal/stats"
	"go-entropy-forensics/pkg/models"
)

const (
	dctBlock = 8
	dctBands = 8
	coefBins = 64 // |coefficient| histogram bins over 0..255
)

// cosTable[u][x] = cos((2x+1) * u * pi / 16)
var cosTable = func() [dctBlock][dctBlock]float64 {
	var t [dctBlock][dctBlock]float64
	for u := 0; u < dctBlock; u++ {
		for x := 0; x < dctBlock; x++ {
			t[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16)
		}
	}
	return t
}()

// JPEGForensicsAnalyzer computes block-DCT sub-band entropy, a Benford
// deviation over AC coefficients, and a quantization-table fingerprint
// from the raw file bytes. Stills only.
type JPEGForensicsAnalyzer struct{}

// NewJPEGForensicsAnalyzer creates the analyzer.
func NewJPEGForensicsAnalyzer() *JPEGForensicsAnalyzer {
	return &JPEGForensicsAnalyzer{}
}

// Analyze partitions the grayscale frame into 8x8 blocks (partial
// trailing blocks dropped), level-shifts by -128 and applies a 2D DCT
// per block. The quantization fingerprint comes from fileBytes, which
// may be nil when the source bytes are unavailable.
func (a *JPEGForensicsAnalyzer) Analyze(gray *image.Gray, fileBytes []byte) *models.JPEGFeatures {
	feats := &models.JPEGFeatures{IsJPEG: isJPEG(fileBytes)}

	b := gray.Bounds()
	blocksX := b.Dx() / dctBlock
	blocksY := b.Dy() / dctBlock

	if blocksX > 0 && blocksY > 0 {
		bandHists := make([][]float64, dctBands)
		for i := range bandHists {
			bandHists[i] = make([]float64, coefBins)
		}
		var benfordVals []float64

		var block [dctBlock][dctBlock]float64
		var coefs [dctBlock][dctBlock]float64
		for by := 0; by < blocksY; by++ {
			for bx := 0; bx < blocksX; bx++ {
				for y := 0; y < dctBlock; y++ {
					for x := 0; x < dctBlock; x++ {
						block[y][x] = float64(gray.GrayAt(b.Min.X+bx*dctBlock+x, b.Min.Y+by*dctBlock+y).Y) - 128
					}
				}
				dct2d(&block, &coefs)

				for v := 0; v < dctBlock; v++ {
					for u := 0; u < dctBlock; u++ {
						if u == 0 && v == 0 {
							continue // DC
						}
						c := coefs[v][u]
						band := bandIndex(u + v)
						mag := math.Abs(c)
						if mag > 255 {
							mag = 255
						}
						bandHists[band][int(mag)/4]++

						if u > 0 && v > 0 && math.Abs(c) > 1e-6 {
							benfordVals = append(benfordVals, c)
						}
					}
				}
			}
		}

		feats.BandEntropy = make([]float64, dctBands)
		for i, hist := range bandHists {
			feats.BandEntropy[i] = stats.ShannonEntropy(hist)
		}
		feats.BenfordChi2 = stats.BenfordChiSquare(benfordVals)
	}

	if feats.IsJPEG {
		feats.QTables = quantizationFingerprint(fileBytes)
	}
	return feats
}

// bandIndex maps the diagonal u+v (1..14) onto 8 frequency bands,
// band 0 adjacent to DC.
func bandIndex(s int) int {
	band := (s - 1) * dctBands / 14
	if band >= dctBands {
		band = dctBands - 1
	}
	return band
}

// dct2d computes an orthonormal 2D DCT-II of one level-shifted block.
func dct2d(block *[dctBlock][dctBlock]float64, out *[dctBlock][dctBlock]float64) {
	for v := 0; v < dctBlock; v++ {
		for u := 0; u < dctBlock; u++ {
			var sum float64
			for y := 0; y < dctBlock; y++ {
				for x := 0; x < dctBlock; x++ {
					sum += block[y][x] * cosTable[u][x] * cosTable[v][y]
				}
			}
			cu, cv := 1.0, 1.0
			if u == 0 {
				cu = math.Sqrt2 / 2
			}
			if v == 0 {
				cv = math.Sqrt2 / 2
			}
			out[v][u] = 0.25 * cu * cv * sum
		}
	}
}

func isJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8
}

// quantizationFingerprint walks the JPEG marker stream and extracts
// the DQT tables in index order. A JPEG without quantization metadata
// yields nil.
func quantizationFingerprint(data []byte) *models.QTableFingerprint {
	tables := map[int][]int{}

	i := 2 // past SOI
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			i += 2
			continue
		}
		if marker == 0xD9 || marker == 0xDA {
			break // EOI or start of entropy-coded scan
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			break
		}
		if marker == 0xDB {
			parseDQT(data[i+4:i+2+segLen], tables)
		}
		i += 2 + segLen
	}

	if len(tables) == 0 {
		return nil
	}

	var flat []int
	for idx := 0; idx < 4; idx++ {
		flat = append(flat, tables[idx]...)
	}

	h := sha1.New()
	vals := make([]float64, len(flat))
	for i, v := range flat {
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(v))
		h.Write(buf[:])
		vals[i] = float64(v)
	}

	return &models.QTableFingerprint{
		SHA1:  fmt.Sprintf("%x", h.Sum(nil)),
		Count: len(tables),
		Mean:  stats.Mean(vals),
		Std:   stats.Std(vals),
	}
}

// parseDQT reads one DQT payload, which may carry several tables.
func parseDQT(payload []byte, tables map[int][]int) {
	i := 0
	for i < len(payload) {
		precision := payload[i] >> 4
		tq := int(payload[i] & 0x0F)
		i++

		n := 64
		if precision == 1 {
			n = 128
		}
		if i+n > len(payload) {
			return
		}

		vals := make([]int, 0, 64)
		if precision == 1 {
			for j := 0; j < n; j += 2 {
				vals = append(vals, int(binary.BigEndian.Uint16(payload[i+j:i+j+2])))
			}
		} else {
			for j := 0; j < n; j++ {
				vals = append(vals, int(payload[i+j]))
			}
		}
		tables[tq] = vals
		i += n
	}
}
