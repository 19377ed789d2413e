package container

import (
	"fmt"
	"net/http"

	"go-entropy-forensics/internal/analyzer"
	"go-entropy-forensics/internal/config"
	"go-entropy-forensics/internal/detector"
	"go-entropy-forensics/internal/factory"
	"go-entropy-forensics/internal/logger"
	"go-entropy-forensics/internal/observer"
	"go-entropy-forensics/internal/repository"
	"go-entropy-forensics/internal/scan"
	"go-entropy-forensics/internal/service"
	"go-entropy-forensics/internal/storage"
	"go-entropy-forensics/internal/store"
	"go-entropy-forensics/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	mediaFetcher storage.MediaFetcher
	registry     *detector.Registry
	orchestrator *scan.Orchestrator
	scanService  service.ScanService
	metrics      *observer.MetricsObserver
	history      *store.Store
	handler      http.Handler
}

// NewContainer builds the dependency graph from the configuration file
// at configPath.
func NewContainer(configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	mediaFetcher, err := factory.NewStorageFactory().CreateFetcher(factory.StorageType(cfg.Fetch.Backend))
	if err != nil {
		return nil, fmt.Errorf("failed to create media fetcher: %w", err)
	}

	registry := detector.NewRegistryWithLibrary(cfg.Scan.ModelDir, cfg.Scan.OnnxLibrary)
	orchestrator := scan.NewOrchestrator(registry, ScanOptions(cfg), cfg.Scan.OutputDir)

	var history *store.Store
	if cfg.Store.Enabled {
		history, err = store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open scan history: %w", err)
		}
	}

	metrics := observer.NewMetricsObserver().(*observer.MetricsObserver)
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	mediaRepo := repository.NewFetcherMediaRepository(mediaFetcher)
	scanService := service.NewScanService(mediaRepo, orchestrator, history, publisher, cfg.Server.FetchTimeout)

	handler := transport.NewHandler(scanService, history, metrics, cfg)

	return &Container{
		config:       cfg,
		mediaFetcher: mediaFetcher,
		registry:     registry,
		orchestrator: orchestrator,
		scanService:  scanService,
		metrics:      metrics,
		history:      history,
		handler:      handler,
	}, nil
}

// ScanOptions maps the configuration record onto the core's option set.
func ScanOptions(cfg *config.Config) analyzer.ScanOptions {
	opts := analyzer.DefaultOptions()
	opts.Radius = cfg.Scan.Radius
	opts.FrameStride = cfg.Scan.FrameStride
	opts.OverlayTopP = cfg.Scan.OverlayTopP
	opts.FaceROI = cfg.Scan.FaceROI
	opts.JPEGAnalysis = cfg.Scan.JPEGAnalysis
	opts.DownscaleMax = cfg.Scan.DownscaleMax
	opts.Legend = cfg.Scan.Legend
	opts.SaveDebugMaps = cfg.Scan.SaveDebugMaps
	return opts.Normalized()
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Orchestrator returns the scan pipeline.
func (c *Container) Orchestrator() *scan.Orchestrator {
	return c.orchestrator
}

// ScanService returns the URL-driven scan service.
func (c *Container) ScanService() service.ScanService {
	return c.scanService
}

// History returns the scan-history store, nil when disabled.
func (c *Container) History() *store.Store {
	return c.history
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.history != nil {
		return c.history.Close()
	}
	return nil
}
