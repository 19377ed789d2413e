package repository

import (
	"context"
)

// MediaRepository defines the interface for media data access operations
type MediaRepository interface {
	// FetchMedia retrieves the raw media bytes from a URL
	FetchMedia(ctx context.Context, mediaURL string) ([]byte, error)

	// ValidateMediaURL validates if the provided URL is acceptable
	ValidateMediaURL(mediaURL string) error
}
