package scan

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"io"
	"path/filepath"
	"strings"

	apperrors "go-entropy-forensics/internal/errors"
	"go-entropy-forensics/pkg/models"
)

// FrameSource yields decoded frames in stream order. Next returns
// io.EOF after the last frame. The orchestrator stays decode-agnostic
// behind this interface.
type FrameSource interface {
	Next() (image.Image, error)
	Frames() int
	Close() error
}

// DetectKind classifies the input as image or video. Animated GIFs and
// MJPEG byte streams are the supported video containers; everything
// else is treated as a still.
func DetectKind(path string, data []byte) models.MediaKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mjpeg", ".mjpg":
		return models.MediaVideo
	}
	if isGIF(data) {
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(g.Image) > 1 {
			return models.MediaVideo
		}
	}
	// A bare extension check is deliberate for MJPEG: ordinary JPEG
	// stills can embed a thumbnail JPEG, which would fool a SOI/EOI
	// count.
	return models.MediaImage
}

// OpenFrameSource opens the matching video reader for the input.
func OpenFrameSource(path string, data []byte) (FrameSource, error) {
	if isGIF(data) {
		return newGIFSource(path, data)
	}
	if segs := splitMJPEG(data); len(segs) > 0 {
		return &mjpegSource{segments: segs}, nil
	}
	return nil, apperrors.NewUnsupportedMedia(path, nil)
}

func isGIF(data []byte) bool {
	return len(data) >= 6 &&
		(bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")))
}

// gifSource composites the animation onto a persistent canvas so each
// yielded frame is a full image even when the file stores partial
// deltas.
type gifSource struct {
	frames []*image.RGBA
	idx    int
}

func newGIFSource(path string, data []byte) (*gifSource, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil || len(g.Image) == 0 {
		return nil, apperrors.NewUnsupportedMedia(path, err)
	}

	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	src := &gifSource{frames: make([]*image.RGBA, 0, len(g.Image))}
	for _, paletted := range g.Image {
		draw.Draw(canvas, paletted.Bounds(), paletted, paletted.Bounds().Min, draw.Over)
		frame := image.NewRGBA(canvas.Bounds())
		copy(frame.Pix, canvas.Pix)
		src.frames = append(src.frames, frame)
	}
	return src, nil
}

func (s *gifSource) Next() (image.Image, error) {
	if s.idx >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.idx]
	s.idx++
	return frame, nil
}

func (s *gifSource) Frames() int { return len(s.frames) }

func (s *gifSource) Close() error {
	s.frames = nil
	return nil
}

// mjpegSource iterates over concatenated JPEG segments, decoding
// lazily. Corrupt segments are skipped rather than aborting the scan.
type mjpegSource struct {
	segments [][]byte
	idx      int
}

func (s *mjpegSource) Next() (image.Image, error) {
	for s.idx < len(s.segments) {
		seg := s.segments[s.idx]
		s.idx++
		frame, err := jpeg.Decode(bytes.NewReader(seg))
		if err != nil {
			continue
		}
		return frame, nil
	}
	return nil, io.EOF
}

func (s *mjpegSource) Frames() int { return len(s.segments) }

func (s *mjpegSource) Close() error {
	s.segments = nil
	return nil
}

// splitMJPEG slices the byte stream into SOI..EOI segments.
func splitMJPEG(data []byte) [][]byte {
	var segments [][]byte
	soi := []byte{0xFF, 0xD8}
	eoi := []byte{0xFF, 0xD9}

	pos := 0
	for {
		start := bytes.Index(data[pos:], soi)
		if start < 0 {
			break
		}
		start += pos
		end := bytes.Index(data[start+2:], eoi)
		if end < 0 {
			break
		}
		end += start + 2 + len(eoi)
		segments = append(segments, data[start:end])
		pos = end
	}
	return segments
}
