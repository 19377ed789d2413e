package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// LocalMediaFetcher reads media straight from the local filesystem.
// It accepts plain paths and file:// URLs.
type LocalMediaFetcher struct{}

// NewLocalMediaFetcher creates a filesystem-backed media fetcher.
func NewLocalMediaFetcher() *LocalMediaFetcher {
	return &LocalMediaFetcher{}
}

// FetchMedia reads the file at the given path.
func (f *LocalMediaFetcher) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(mediaURL, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat media file: %w", err)
	}
	if info.Size() > maxMediaBytes {
		return nil, fmt.Errorf("media file exceeds %d byte limit", maxMediaBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}
	return data, nil
}
