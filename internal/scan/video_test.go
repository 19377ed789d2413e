package scan

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"testing"

	"go-entropy-forensics/pkg/models"
)

var grayPalette = func() color.Palette {
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i)}
	}
	return pal
}()

func palettedFrame(w, h int, fill uint8) *image.Paletted {
	frame := image.NewPaletted(image.Rect(0, 0, w, h), grayPalette)
	for i := range frame.Pix {
		frame.Pix[i] = fill
	}
	return frame
}

func encodeGIF(t *testing.T, frames []*image.Paletted) []byte {
	t.Helper()
	anim := &gif.GIF{}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("Failed to encode test GIF: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, fill uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestDetectKind(t *testing.T) {
	animated := encodeGIF(t, []*image.Paletted{
		palettedFrame(8, 8, 10),
		palettedFrame(8, 8, 20),
	})
	single := encodeGIF(t, []*image.Paletted{palettedFrame(8, 8, 10)})

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}

	cases := []struct {
		name string
		path string
		data []byte
		want models.MediaKind
	}{
		{"animated gif", "clip.gif", animated, models.MediaVideo},
		{"single frame gif", "still.gif", single, models.MediaImage},
		{"png still", "still.png", pngBuf.Bytes(), models.MediaImage},
		{"mjpeg by extension", "stream.mjpeg", encodeJPEG(t, 50), models.MediaVideo},
		{"jpeg still", "photo.jpg", encodeJPEG(t, 50), models.MediaImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if kind := DetectKind(tc.path, tc.data); kind != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, kind)
			}
		})
	}
}

func TestSplitMJPEG(t *testing.T) {
	stream := append(encodeJPEG(t, 30), encodeJPEG(t, 200)...)

	segments := splitMJPEG(stream)

	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if _, err := jpeg.Decode(bytes.NewReader(seg)); err != nil {
			t.Errorf("Segment %d does not decode: %v", i, err)
		}
	}
}

func TestMJPEGSource_SkipsCorruptSegments(t *testing.T) {
	stream := encodeJPEG(t, 30)
	stream = append(stream, []byte{0xFF, 0xD8, 'b', 'a', 'd', 0xFF, 0xD9}...)
	stream = append(stream, encodeJPEG(t, 200)...)

	src, err := OpenFrameSource("stream.mjpeg", stream)
	if err != nil {
		t.Fatalf("Failed to open source: %v", err)
	}
	defer src.Close()

	if src.Frames() != 3 {
		t.Errorf("Expected 3 raw segments, got %d", src.Frames())
	}

	decoded := 0
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		decoded++
	}
	if decoded != 2 {
		t.Errorf("Expected 2 decodable frames, got %d", decoded)
	}
}

func TestGIFSource_CompositesFullFrames(t *testing.T) {
	data := encodeGIF(t, []*image.Paletted{
		palettedFrame(16, 16, 40),
		palettedFrame(16, 16, 80),
		palettedFrame(16, 16, 120),
	})

	src, err := OpenFrameSource("clip.gif", data)
	if err != nil {
		t.Fatalf("Failed to open source: %v", err)
	}
	defer src.Close()

	if src.Frames() != 3 {
		t.Errorf("Expected 3 frames, got %d", src.Frames())
	}

	count := 0
	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		b := frame.Bounds()
		if b.Dx() != 16 || b.Dy() != 16 {
			t.Errorf("Expected full 16x16 frame, got %v", b)
		}
		count++
	}
	if count != 3 {
		t.Errorf("Expected to iterate 3 frames, got %d", count)
	}
}

func TestOpenFrameSource_Unsupported(t *testing.T) {
	if _, err := OpenFrameSource("blob.bin", []byte("not media at all")); err == nil {
		t.Error("Expected an error for unsupported bytes")
	}
}

func noisePalettedFrame(w, h int, rng *rand.Rand) *image.Paletted {
	frame := image.NewPaletted(image.Rect(0, 0, w, h), grayPalette)
	for i := range frame.Pix {
		frame.Pix[i] = uint8(rng.Intn(256))
	}
	return frame
}
