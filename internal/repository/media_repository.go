package repository

import (
	"context"

	"go-entropy-forensics/internal/storage"
	"go-entropy-forensics/pkg/validation"
)

// FetcherMediaRepository implements MediaRepository on top of a
// storage.MediaFetcher, keeping URL policy out of the fetcher itself.
type FetcherMediaRepository struct {
	fetcher   storage.MediaFetcher
	validator *validation.URLValidator
}

// NewFetcherMediaRepository creates a fetcher-backed media repository
func NewFetcherMediaRepository(fetcher storage.MediaFetcher) MediaRepository {
	return &FetcherMediaRepository{
		fetcher:   fetcher,
		validator: validation.NewURLValidator(),
	}
}

// FetchMedia retrieves the raw media bytes from a URL
func (r *FetcherMediaRepository) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	return r.fetcher.FetchMedia(ctx, mediaURL)
}

// ValidateMediaURL validates if the provided URL is acceptable
func (r *FetcherMediaRepository) ValidateMediaURL(mediaURL string) error {
	if mediaURL == "" {
		return ErrInvalidMediaURL
	}
	return r.validator.ValidateMediaURL(mediaURL)
}
