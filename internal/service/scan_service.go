package service

import (
	"context"
	"errors"
	"time"

	apperrors "go-entropy-forensics/internal/errors"
	"go-entropy-forensics/internal/logger"
	"go-entropy-forensics/internal/observer"
	"go-entropy-forensics/internal/repository"
	"go-entropy-forensics/internal/scan"
	"go-entropy-forensics/internal/store"
	"go-entropy-forensics/pkg/models"
)

// ScanService defines the interface for URL-driven media scanning
type ScanService interface {
	// ScanURL fetches media from a URL and runs the full pipeline on it
	ScanURL(ctx context.Context, mediaURL string) (*models.ScanResult, error)

	// ValidateMediaURL validates the media URL
	ValidateMediaURL(mediaURL string) error
}

// scanService implements ScanService
type scanService struct {
	mediaRepo    repository.MediaRepository
	orchestrator *scan.Orchestrator
	history      *store.Store
	publisher    observer.Subject
	fetchTimeout time.Duration
}

// NewScanService creates a new scan service. The history store may be
// nil when persistence is disabled.
func NewScanService(
	mediaRepo repository.MediaRepository,
	orchestrator *scan.Orchestrator,
	history *store.Store,
	publisher observer.Subject,
	fetchTimeout time.Duration,
) ScanService {
	return &scanService{
		mediaRepo:    mediaRepo,
		orchestrator: orchestrator,
		history:      history,
		publisher:    publisher,
		fetchTimeout: fetchTimeout,
	}
}

// ScanURL fetches media from a URL and runs the full pipeline on it
func (s *scanService) ScanURL(ctx context.Context, mediaURL string) (*models.ScanResult, error) {
	if err := s.ValidateMediaURL(mediaURL); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.ScanEvent{
		EventType: observer.ScanStarted,
		Timestamp: start,
		Input:     mediaURL,
	})

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	data, err := s.mediaRepo.FetchMedia(fetchCtx, mediaURL)
	cancel()
	if err != nil {
		var fetchErr *apperrors.ScanError
		if errors.Is(err, context.DeadlineExceeded) {
			fetchErr = apperrors.NewTimeoutError("Media fetch timeout", err)
		} else {
			fetchErr = apperrors.NewNetworkError("Failed to fetch media", err)
		}
		s.publish(ctx, observer.ScanEvent{
			EventType:      observer.MediaFetchFailed,
			Timestamp:      time.Now(),
			Input:          mediaURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   fetchErr.Error(),
		})
		return nil, fetchErr
	}

	s.publish(ctx, observer.ScanEvent{
		EventType:      observer.MediaFetched,
		Timestamp:      time.Now(),
		Input:          mediaURL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(data)},
	})

	result, err := s.orchestrator.ScanBytes(ctx, mediaURL, data)
	if err != nil {
		s.publish(ctx, observer.ScanEvent{
			EventType:      observer.ScanFailed,
			Timestamp:      time.Now(),
			Input:          mediaURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	if s.history != nil {
		if _, err := s.history.Insert(result); err != nil {
			// History is best-effort; the scan result still stands.
			logger.WithError(err).Warn("Failed to record scan history")
		}
	}

	s.publish(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		Timestamp:      time.Now(),
		Input:          mediaURL,
		Kind:           result.Kind,
		Score:          result.Score,
		ProcessingTime: time.Since(start),
		Success:        true,
	})

	return result, nil
}

// ValidateMediaURL validates the media URL
func (s *scanService) ValidateMediaURL(mediaURL string) error {
	return s.mediaRepo.ValidateMediaURL(mediaURL)
}

func (s *scanService) publish(ctx context.Context, event observer.ScanEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}
