package scan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-entropy-forensics/internal/analyzer"
	"go-entropy-forensics/internal/detector"
	apperrors "go-entropy-forensics/internal/errors"
	"go-entropy-forensics/internal/fusion"
	"go-entropy-forensics/internal/imaging"
	"go-entropy-forensics/internal/overlay"
	"go-entropy-forensics/pkg/models"
	"go-entropy-forensics/pkg/validation"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Orchestrator runs the full pipeline: preprocess, analyzers, overlay
// rendering and score fusion, for stills and for sampled video frames.
type Orchestrator struct {
	opts      analyzer.ScanOptions
	outputDir string

	registry *detector.Registry
	entropy  *analyzer.LocalEntropyAnalyzer
	face     *analyzer.FaceRegionAnalyzer
	jpeg     *analyzer.JPEGForensicsAnalyzer
	bytesA   *analyzer.ByteEntropyAnalyzer
	fuser    *fusion.ScoreFusion
	checker  *validation.ResultValidator

	// Progress, when set, is invoked after each sampled video frame
	// with (done, total). Total is the pre-stride frame count.
	Progress func(done, total int)
}

// NewOrchestrator wires the analyzers for the given options. Overlay
// and debug artifacts are written under outputDir; an empty outputDir
// disables artifact files while keeping the computed overlay metrics.
func NewOrchestrator(registry *detector.Registry, opts analyzer.ScanOptions, outputDir string) *Orchestrator {
	opts = opts.Normalized()
	return &Orchestrator{
		opts:      opts,
		outputDir: outputDir,
		registry:  registry,
		entropy:   analyzer.NewLocalEntropyAnalyzer(opts.Radius),
		face:      analyzer.NewFaceRegionAnalyzer(registry),
		jpeg:      analyzer.NewJPEGForensicsAnalyzer(),
		bytesA:    analyzer.NewByteEntropyAnalyzer(),
		fuser:     fusion.NewScoreFusion(),
		checker:   validation.NewResultValidator(),
	}
}

// Scan analyzes the media file at path.
func (o *Orchestrator) Scan(ctx context.Context, path string) (*models.ScanResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewInputNotFound(path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInputNotFound(path, err)
	}
	return o.ScanBytes(ctx, path, data)
}

// ScanBytes analyzes in-memory media bytes. The name is used for kind
// detection, artifact naming and the result's input path.
func (o *Orchestrator) ScanBytes(ctx context.Context, name string, data []byte) (*models.ScanResult, error) {
	start := time.Now()

	kind := DetectKind(name, data)
	var (
		result *models.ScanResult
		err    error
	)
	if kind == models.MediaVideo {
		result, err = o.scanVideo(ctx, name, data)
	} else {
		result, err = o.scanImage(name, data)
	}
	if err != nil {
		return nil, err
	}

	result.InputPath = name
	result.Kind = kind
	result.Timestamp = start.UTC()
	result.ElapsedSec = time.Since(start).Seconds()
	result.DetectorTag = o.registry.Detector().Tag()
	result.Warnings = o.checker.ConvertIssuesToMessages(o.checker.Validate(result))
	return result, nil
}

// frameAnalysis bundles the per-frame intermediate state shared
// between aggregation and overlay rendering.
type frameAnalysis struct {
	entropy *analyzer.EntropyResult
	face    *models.FaceFeatures
	boxes   []models.FaceBox
	gray    *image.Gray
	scale   float64
}

func (o *Orchestrator) analyzeFrame(native image.Image) *frameAnalysis {
	frame, scale := imaging.ResizeToProcessing(native, o.opts.DownscaleMax)
	gray := imaging.ToGrayscale(frame)
	yp, cb, cr := imaging.ToYCbCr(frame)
	edges := imaging.EdgeMask(gray)

	fa := &frameAnalysis{
		entropy: o.entropy.Analyze(yp, cb, cr, edges),
		gray:    gray,
		scale:   scale,
	}
	if o.opts.FaceROI {
		value := imaging.ToHSVValue(frame)
		fa.face, fa.boxes = o.face.Analyze(frame, gray, value, fa.entropy.YMap)
	}
	return fa
}

func (o *Orchestrator) scanImage(name string, data []byte) (*models.ScanResult, error) {
	native, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewUnsupportedMedia(name, err)
	}

	fa := o.analyzeFrame(native)

	feats := models.FeatureSet{
		Entropy: fa.entropy.Features,
		Bytes:   o.bytesA.Analyze(data),
		Face:    fa.face,
	}
	if o.opts.JPEGAnalysis {
		feats.JPEG = o.jpeg.Analyze(fa.gray, data)
	}

	info, err := o.renderArtifacts(name, native, fa)
	if err != nil {
		return nil, err
	}

	score, breakdown := o.fuser.Fuse(feats, info.Coverage)
	return &models.ScanResult{
		Features:  feats,
		Overlay:   info,
		Breakdown: breakdown,
		Score:     score,
	}, nil
}

// frameAggregate folds per-frame features order-independently: scalar
// features average across frames, histograms sum elementwise. The
// temporal accumulator shares the lock because frames may arrive from
// pool workers.
type frameAggregate struct {
	mu       sync.Mutex
	n        int
	ent      models.EntropyFeatures
	faceN    int
	face     models.FaceFeatures
	temporal *analyzer.TemporalAccumulator
}

func newFrameAggregate() *frameAggregate {
	return &frameAggregate{temporal: analyzer.NewTemporalAccumulator()}
}

func (agg *frameAggregate) add(fa *frameAnalysis) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	agg.n++
	addChannel(&agg.ent.Y, fa.entropy.Features.Y)
	addChannel(&agg.ent.Cb, fa.entropy.Features.Cb)
	addChannel(&agg.ent.Cr, fa.entropy.Features.Cr)
	agg.ent.JSDivYCb += fa.entropy.Features.JSDivYCb
	agg.ent.JSDivYCr += fa.entropy.Features.JSDivYCr
	agg.ent.EdgeMean += fa.entropy.Features.EdgeMean
	agg.ent.FlatMean += fa.entropy.Features.FlatMean
	agg.ent.EdgeFlatRatio += fa.entropy.Features.EdgeFlatRatio
	agg.ent.HotspotFrac += fa.entropy.Features.HotspotFrac

	if fa.face != nil {
		if agg.faceN == 0 {
			agg.face.Box = fa.face.Box
		}
		agg.faceN++
		agg.face.EntropyMean += fa.face.EntropyMean
		agg.face.RingMean += fa.face.RingMean
		agg.face.EntropyDelta += fa.face.EntropyDelta
		agg.face.HotspotCover += fa.face.HotspotCover
		agg.face.HotspotMean += fa.face.HotspotMean
		agg.face.BoundaryGrad += fa.face.BoundaryGrad
		agg.face.GlintAsym += fa.face.GlintAsym
		agg.face.GlintIrreg += fa.face.GlintIrreg
		agg.face.GlintCount += fa.face.GlintCount
	}

	agg.temporal.Add(fa.gray)
}

func addChannel(dst *models.ChannelStats, src models.ChannelStats) {
	dst.Mean += src.Mean
	dst.Std += src.Std
	if dst.Histogram == nil {
		dst.Histogram = make([]float64, len(src.Histogram))
	}
	for i := range src.Histogram {
		dst.Histogram[i] += src.Histogram[i]
	}
}

// finalize averages the scalar sums. Histograms stay as elementwise
// sums across frames.
func (agg *frameAggregate) finalize() (models.EntropyFeatures, *models.FaceFeatures, *models.TemporalFeatures) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	n := float64(agg.n)
	ent := agg.ent
	ent.Y.Mean /= n
	ent.Y.Std /= n
	ent.Cb.Mean /= n
	ent.Cb.Std /= n
	ent.Cr.Mean /= n
	ent.Cr.Std /= n
	ent.JSDivYCb /= n
	ent.JSDivYCr /= n
	ent.EdgeMean /= n
	ent.FlatMean /= n
	ent.EdgeFlatRatio /= n
	ent.HotspotFrac /= n

	var face *models.FaceFeatures
	if agg.faceN > 0 {
		fn := float64(agg.faceN)
		f := agg.face
		f.EntropyMean /= fn
		f.RingMean /= fn
		f.EntropyDelta /= fn
		f.HotspotCover /= fn
		f.HotspotMean /= fn
		f.BoundaryGrad /= fn
		f.GlintAsym /= fn
		f.GlintIrreg /= fn
		f.GlintCount = int(float64(f.GlintCount)/fn + 0.5)
		face = &f
	}

	return ent, face, agg.temporal.Finalize()
}

func (o *Orchestrator) scanVideo(ctx context.Context, name string, data []byte) (*models.ScanResult, error) {
	src, err := OpenFrameSource(name, data)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	agg := newFrameAggregate()
	total := src.Frames()

	var pool *analyzer.WorkerPool
	if o.opts.UseWorkerPool {
		pool = analyzer.NewWorkerPool(o.opts.MaxWorkers)
		pool.Start()
		defer pool.Close()
	}

	var (
		rep       *frameAnalysis
		repNative image.Image
		sampled   int
	)
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewTimeoutError("video scan canceled", err)
		}
		native, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if idx%o.opts.FrameStride != 0 {
			continue
		}
		sampled++

		if rep == nil {
			// The first sampled frame doubles as the overlay's
			// representative; analyze it inline so its maps are
			// retained.
			rep = o.analyzeFrame(native)
			repNative = native
			agg.add(rep)
			o.reportProgress(sampled, total)
			continue
		}

		frame := native
		job := func() {
			agg.add(o.analyzeFrame(frame))
		}
		if pool != nil {
			pool.Submit(job)
		} else {
			job()
		}
		o.reportProgress(sampled, total)
	}
	if pool != nil {
		pool.Wait()
	}

	if sampled == 0 {
		return nil, apperrors.NewNoFramesSampled(o.opts.FrameStride)
	}

	ent, face, temporal := agg.finalize()
	feats := models.FeatureSet{
		Entropy:  ent,
		Bytes:    o.bytesA.Analyze(data),
		Face:     face,
		Temporal: temporal,
	}

	info, err := o.renderArtifacts(name, repNative, rep)
	if err != nil {
		return nil, err
	}

	score, breakdown := o.fuser.Fuse(feats, info.Coverage)
	return &models.ScanResult{
		Features:  feats,
		Overlay:   info,
		Breakdown: breakdown,
		Score:     score,
	}, nil
}

func (o *Orchestrator) reportProgress(done, total int) {
	if o.Progress != nil {
		o.Progress(done, total)
	}
}

// renderArtifacts draws the overlay for the representative frame and,
// when configured, writes it (plus the debug anomaly map) to disk.
func (o *Orchestrator) renderArtifacts(name string, native image.Image, fa *frameAnalysis) (models.OverlayInfo, error) {
	renderer := overlay.NewRenderer(o.opts.OverlayTopP, o.opts.Legend, o.opts.FaceROI)
	img, info := renderer.Render(overlay.Frame{
		Native: native,
		ZMap:   fa.entropy.ZMap,
		Scale:  fa.scale,
		Faces:  fa.boxes,
	})

	if o.outputDir == "" {
		return info, nil
	}
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return info, apperrors.NewInternalError("failed to create output directory", err)
	}

	overlayPath := o.artifactPath(name, "_overlay.png")
	if err := overlay.SavePNG(overlayPath, img); err != nil {
		return info, apperrors.NewInternalError("failed to write overlay", err)
	}
	info.Path = overlayPath

	if o.opts.SaveDebugMaps {
		zmapPath := o.artifactPath(name, "_zmap.png")
		if err := overlay.SavePNG(zmapPath, renderer.AnomalyMap(fa.entropy.ZMap)); err != nil {
			return info, apperrors.NewInternalError("failed to write debug map", err)
		}
	}
	return info, nil
}

func (o *Orchestrator) artifactPath(name, suffix string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = fmt.Sprintf("scan_%d", time.Now().Unix())
	}
	return filepath.Join(o.outputDir, base+suffix)
}
