package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStorage retrieves raw media bytes from a blob container.
type BlobStorage interface {
	GetMedia(ctx context.Context, blobURL string) ([]byte, error)
}

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a shared-key Azure Blob fetcher.
func NewAzureStorage(accountName string, accountKey string) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client}, nil
}

// GetMedia downloads a blob addressed as
// https://account.blob.core.windows.net/container?blob=name.
func (s *azureStorage) GetMedia(ctx context.Context, blobURL string) ([]byte, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return nil, fmt.Errorf("blob URL missing container: %s", blobURL)
	}

	containerName := parsedURL.Path[1:]
	blobName := parsedURL.Query().Get("blob")

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(io.LimitReader(retryReader, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob body: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("blob exceeds %d byte limit", maxMediaBytes)
	}
	return data, nil
}
