package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service and scan configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Scan   ScanConfig   `yaml:"scan"`
	Store  StoreConfig  `yaml:"store"`
}

// FetchConfig selects the media fetch backend for the HTTP service.
type FetchConfig struct {
	Backend string `yaml:"backend"` // http, azure or local
}

type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
}

// ScanConfig mirrors the option record the core recognizes.
type ScanConfig struct {
	Radius        int     `yaml:"radius"`          // disk radius for local entropy, 3..31
	FrameStride   int     `yaml:"frame_stride"`    // video sampling stride, 1..60
	OverlayTopP   float64 `yaml:"overlay_top_p"`   // anomaly mask fraction, 0.001..0.2
	FaceROI       bool    `yaml:"face_roi"`        // enable face-region analysis
	JPEGAnalysis  bool    `yaml:"jpeg_analysis"`   // enable block-DCT forensics on stills
	DownscaleMax  int     `yaml:"downscale_max"`   // processing resolution cap, 0 disables
	Legend        bool    `yaml:"legend"`          // draw overlay legend panel
	SaveDebugMaps bool    `yaml:"save_debug_maps"` // write intermediate anomaly map
	ModelDir      string  `yaml:"model_dir"`       // ONNX face detector bundle directory
	OnnxLibrary   string  `yaml:"onnx_library"`    // explicit onnxruntime shared library path
	OutputDir     string  `yaml:"output_dir"`      // overlay/debug artifact directory
}

type StoreConfig struct {
	Path    string `yaml:"path"` // SQLite scan-history database
	Enabled bool   `yaml:"enabled"`
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. FORENSICS_ADDR overrides the listen address and
// FORENSICS_ONNX_LIB the onnxruntime shared library path either way;
// env reads stay in this layer, the core packages take plain values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if addr := strings.TrimSpace(os.Getenv("FORENSICS_ADDR")); addr != "" {
		cfg.Server.Addr = addr
	}
	if lib := strings.TrimSpace(os.Getenv("FORENSICS_ONNX_LIB")); lib != "" {
		cfg.Scan.OnnxLibrary = lib
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			RequestTimeout:     60 * time.Second,
			FetchTimeout:       15 * time.Second,
			MaxRequestBodySize: 10 * 1024 * 1024,
		},
		Fetch: FetchConfig{
			Backend: "http",
		},
		Scan: ScanConfig{
			Radius:       7,
			FrameStride:  10,
			OverlayTopP:  0.02,
			FaceROI:      true,
			JPEGAnalysis: true,
			DownscaleMax: 960,
			Legend:       true,
			OutputDir:    "out",
		},
		Store: StoreConfig{
			Path: "forensics.db",
		},
	}
}

// Validate enforces the recognized option ranges.
func (c *Config) Validate() error {
	if c.Scan.Radius < 3 || c.Scan.Radius > 31 {
		return fmt.Errorf("scan.radius must be in [3, 31], got %d", c.Scan.Radius)
	}
	if c.Scan.FrameStride < 1 || c.Scan.FrameStride > 60 {
		return fmt.Errorf("scan.frame_stride must be in [1, 60], got %d", c.Scan.FrameStride)
	}
	if c.Scan.OverlayTopP < 0.001 || c.Scan.OverlayTopP > 0.2 {
		return fmt.Errorf("scan.overlay_top_p must be in [0.001, 0.2], got %g", c.Scan.OverlayTopP)
	}
	if c.Scan.DownscaleMax < 0 {
		return fmt.Errorf("scan.downscale_max must be >= 0, got %d", c.Scan.DownscaleMax)
	}
	if c.Server.RequestTimeout <= 0 || c.Server.FetchTimeout <= 0 {
		return fmt.Errorf("server timeouts must be > 0 (got request=%s, fetch=%s)",
			c.Server.RequestTimeout, c.Server.FetchTimeout)
	}
	if c.Server.MaxRequestBodySize <= 0 {
		return fmt.Errorf("server.max_request_body_size must be > 0, got %d", c.Server.MaxRequestBodySize)
	}
	switch c.Fetch.Backend {
	case "", "http", "azure", "local":
	default:
		return fmt.Errorf("fetch.backend must be http, azure or local, got %q", c.Fetch.Backend)
	}
	return nil
}
