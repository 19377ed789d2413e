package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"go-entropy-forensics/internal/config"
	"go-entropy-forensics/internal/container"
	"go-entropy-forensics/internal/detector"
	"go-entropy-forensics/internal/scan"
	"go-entropy-forensics/internal/store"
	"go-entropy-forensics/internal/strategy"
)

type scanFlags struct {
	Radius        int
	FrameStride   int
	OverlayTopP   float64
	NoFace        bool
	NoJPEG        bool
	NoLegend      bool
	DownscaleMax  int
	SaveDebugMaps bool
	OutputDir     string
	Record        bool
	Profile       string
}

var scanOpts scanFlags

var scanCmd = &cobra.Command{
	Use:   "scan [file...]",
	Short: "Scan media files and report anomaly scores",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

func init() {
	scanCmd.Flags().IntVarP(&scanOpts.Radius, "radius", "r", 0, "Local entropy disk radius (3..31, 0 uses config)")
	scanCmd.Flags().IntVarP(&scanOpts.FrameStride, "stride", "n", 0, "Video sampling stride (1..60, 0 uses config)")
	scanCmd.Flags().Float64VarP(&scanOpts.OverlayTopP, "top-p", "p", 0, "Anomaly mask fraction (0.001..0.2, 0 uses config)")
	scanCmd.Flags().BoolVar(&scanOpts.NoFace, "no-face", false, "Disable face-region analysis")
	scanCmd.Flags().BoolVar(&scanOpts.NoJPEG, "no-jpeg", false, "Disable block-DCT forensics")
	scanCmd.Flags().BoolVar(&scanOpts.NoLegend, "no-legend", false, "Omit the overlay legend panel")
	scanCmd.Flags().IntVar(&scanOpts.DownscaleMax, "downscale", -1, "Processing resolution cap (-1 uses config, 0 disables)")
	scanCmd.Flags().BoolVarP(&scanOpts.SaveDebugMaps, "debug-maps", "d", false, "Write the intermediate anomaly map next to the overlay")
	scanCmd.Flags().StringVarP(&scanOpts.OutputDir, "out", "o", "", "Artifact directory (default from config)")
	scanCmd.Flags().BoolVar(&scanOpts.Record, "record", false, "Record results in the scan-history store")
	scanCmd.Flags().StringVar(&scanOpts.Profile, "profile", "balanced", "Scan profile: balanced, thorough or fast")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyScanFlags(cfg)

	strat, err := strategy.ForProfile(scanOpts.Profile)
	if err != nil {
		return err
	}
	opts := strat.Apply(container.ScanOptions(cfg))
	registry := detector.NewRegistryWithLibrary(cfg.Scan.ModelDir, cfg.Scan.OnnxLibrary)
	orchestrator := scan.NewOrchestrator(registry, opts, cfg.Scan.OutputDir)

	var history *store.Store
	if scanOpts.Record {
		history, err = store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open scan history: %w", err)
		}
		defer history.Close()
	}

	for _, path := range args {
		if err := scanOne(cmd, orchestrator, history, path); err != nil {
			return err
		}
	}
	return nil
}

func scanOne(cmd *cobra.Command, orchestrator *scan.Orchestrator, history *store.Store, path string) error {
	var bar *progressbar.ProgressBar
	if isVideoPath(path) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(fmt.Sprintf("Scanning %s", filepath.Base(path))),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		orchestrator.Progress = func(done, total int) {
			if total > 0 {
				bar.ChangeMax(total)
			}
			bar.Set(done)
		}
		defer func() {
			orchestrator.Progress = nil
			bar.Finish()
			fmt.Fprintln(os.Stderr)
		}()
	}

	result, err := orchestrator.Scan(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}

	if history != nil {
		if _, err := history.Insert(result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to record scan: %v\n", err)
		}
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func applyScanFlags(cfg *config.Config) {
	if scanOpts.Radius > 0 {
		cfg.Scan.Radius = scanOpts.Radius
	}
	if scanOpts.FrameStride > 0 {
		cfg.Scan.FrameStride = scanOpts.FrameStride
	}
	if scanOpts.OverlayTopP > 0 {
		cfg.Scan.OverlayTopP = scanOpts.OverlayTopP
	}
	if scanOpts.NoFace {
		cfg.Scan.FaceROI = false
	}
	if scanOpts.NoJPEG {
		cfg.Scan.JPEGAnalysis = false
	}
	if scanOpts.NoLegend {
		cfg.Scan.Legend = false
	}
	if scanOpts.DownscaleMax >= 0 {
		cfg.Scan.DownscaleMax = scanOpts.DownscaleMax
	}
	if scanOpts.SaveDebugMaps {
		cfg.Scan.SaveDebugMaps = true
	}
	if scanOpts.OutputDir != "" {
		cfg.Scan.OutputDir = scanOpts.OutputDir
	}
}

func isVideoPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif", ".mjpeg", ".mjpg":
		return true
	}
	return false
}
