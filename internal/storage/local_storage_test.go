package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFetchMedia(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.gif")
	payload := []byte("GIF89a fake payload")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewLocalMediaFetcher()

	for _, ref := range []string{path, "file://" + path} {
		data, err := f.FetchMedia(context.Background(), ref)
		if err != nil {
			t.Fatalf("FetchMedia(%q): %v", ref, err)
		}
		if !bytes.Equal(data, payload) {
			t.Errorf("FetchMedia(%q) returned %d bytes, want %d", ref, len(data), len(payload))
		}
	}
}

func TestLocalFetchMedia_MissingFile(t *testing.T) {
	f := NewLocalMediaFetcher()
	if _, err := f.FetchMedia(context.Background(), filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLocalFetchMedia_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewLocalMediaFetcher()
	if _, err := f.FetchMedia(ctx, "irrelevant"); err == nil {
		t.Error("expected context error")
	}
}
