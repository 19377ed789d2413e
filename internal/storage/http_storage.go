package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MediaFetcher retrieves raw media bytes. Decoding stays with the
// orchestrator so the byte-entropy analyzer always sees the true file
// content.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, mediaURL string) ([]byte, error)
}

// Cap on a fetched media body; videos beyond this are rejected rather
// than buffered.
const maxMediaBytes = 64 << 20

// HTTPMediaFetcher implements MediaFetcher over plain HTTP(S).
type HTTPMediaFetcher struct {
	client *http.Client
}

// NewHTTPMediaFetcher creates an HTTP media fetcher.
func NewHTTPMediaFetcher() MediaFetcher {
	// Transport tuned for one-shot media downloads rather than a busy
	// crawl: a small idle pool and tight header timeouts.
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	return &HTTPMediaFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// FetchMedia downloads the media with up to 3 attempts. 4xx responses
// are non-retryable; network errors and 5xx responses back off linearly.
func (h *HTTPMediaFetcher) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/gif, video/*, */*")
	req.Header.Set("User-Agent", "Entropy-Forensics/1.0")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < 2 {
				time.Sleep(time.Duration(attempt+1) * time.Second)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read media body: %w", err)
			}
			if len(data) > maxMediaBytes {
				return nil, fmt.Errorf("media exceeds %d byte limit", maxMediaBytes)
			}
			return data, nil
		}

		resp.Body.Close()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("client error: status code %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to fetch media after 3 attempts: %w", lastErr)
	}
	return nil, fmt.Errorf("failed to fetch media after 3 attempts: unknown error")
}
