package factory

import (
	"context"
	"fmt"
	"os"

	"go-entropy-forensics/internal/storage"
)

// StorageType represents different types of media storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based media fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// StorageFactory creates media fetcher implementations
type StorageFactory interface {
	CreateFetcher(storageType StorageType) (storage.MediaFetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateFetcher creates a media fetcher based on the specified type.
// Azure credentials come from AZURE_STORAGE_ACCOUNT and
// AZURE_STORAGE_KEY.
func (f *storageFactory) CreateFetcher(storageType StorageType) (storage.MediaFetcher, error) {
	switch storageType {
	case HTTPStorage, "":
		return storage.NewHTTPMediaFetcher(), nil
	case AzureStorage:
		account := os.Getenv("AZURE_STORAGE_ACCOUNT")
		key := os.Getenv("AZURE_STORAGE_KEY")
		if account == "" || key == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		blob, err := storage.NewAzureStorage(account, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
		return &blobFetcher{blob: blob}, nil
	case LocalStorage:
		return storage.NewLocalMediaFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// blobFetcher adapts BlobStorage to the MediaFetcher interface
type blobFetcher struct {
	blob storage.BlobStorage
}

func (b *blobFetcher) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	return b.blob.GetMedia(ctx, mediaURL)
}
