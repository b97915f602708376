package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/framecache"
	"timer-stickers/internal/logging"
	"timer-stickers/internal/memory"
	"timer-stickers/internal/metrics"
	"timer-stickers/internal/render"
	"timer-stickers/internal/renderworker"
	"timer-stickers/internal/trimmer"
)

// Generation sources, reported in results, metrics and history.
const (
	SourceCache         = "cache"
	SourceExtract       = "extract"
	SourceTrim          = "trim"
	SourceRenderDirect  = "render-direct"
	SourceRenderChunked = "render-chunked"
)

// DefaultChunkThreshold is the required-frame count at which rendering
// switches from the direct worker to in-process chunked batches: ten
// minutes of frames at 1 fps.
const DefaultChunkThreshold = 600

// memoryCheckEvery is how many chunks pass between pressure re-checks.
const memoryCheckEvery = 3

// Config tunes one orchestrator instance.
type Config struct {
	// FPS is the output frame rate (default 1).
	FPS int
	// ChunkThreshold is the required-frame count selecting chunked
	// rendering (default DefaultChunkThreshold).
	ChunkThreshold int
	// MaxBlobBytes flags oversize results when > 0. The blob is still
	// returned; reporting is the caller's job.
	MaxBlobBytes int64
	// PreferredStrategy is passed to the encoding chain ("" = chain
	// order).
	PreferredStrategy string
	// TrimEnabled turns the master-clip fast path on.
	TrimEnabled bool
}

func (c Config) withDefaults() Config {
	if c.FPS <= 0 {
		c.FPS = 1
	}
	if c.ChunkThreshold <= 0 {
		c.ChunkThreshold = DefaultChunkThreshold
	}
	return c
}

// Trimmer is the master-clip fast path as the orchestrator sees it.
type Trimmer interface {
	CanHandle(duration int) bool
	Trim(ctx context.Context, duration int, onProgress encoder.ProgressFunc) trimmer.Result
}

// MemoryGovernor is the live memory-pressure view consulted by the
// chunked render path.
type MemoryGovernor interface {
	Pressure() memory.Pressure
	Refresh()
	WaitIfPaused() bool
}

// Recorder receives one record per finished generation attempt.
type Recorder interface {
	RecordGeneration(rec Record)
}

// Record describes one generation attempt for history bookkeeping.
type Record struct {
	Time     time.Time
	Duration int
	Source   string
	MIME     string
	Bytes    int64
	HitRate  float64
	Elapsed  time.Duration
	Status   string
	Error    string
}

// Result is a successful generation outcome.
type Result struct {
	Blob     encoder.Blob
	Duration int
	Source   string
	HitRate  float64
	Oversize bool
	Elapsed  time.Duration
}

// Deps are the orchestrator's collaborators. Cache, Chain and Renderer
// are required; Trimmer, Monitor and Recorder may be nil.
type Deps struct {
	Cache    *framecache.Manager
	Chain    *encoder.Chain
	Renderer render.Renderer
	Trimmer  Trimmer
	Monitor  MemoryGovernor
	Recorder Recorder
}

// Orchestrator coordinates cache, trimmer, renderer and encoder for one
// service instance.
type Orchestrator struct {
	cfg  Config
	deps Deps
}

// New creates an orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	return &Orchestrator{cfg: cfg.withDefaults(), deps: deps}
}

// Generate produces the sticker clip for a duration. onProgress, when
// non-nil, receives overall progress 0-100: the render phase occupies
// 0-50 and encoding the remainder; cache-served requests map encoding
// across the whole scale.
func (o *Orchestrator) Generate(ctx context.Context, duration int, onProgress encoder.ProgressFunc) (Result, error) {
	start := time.Now()

	if duration < 0 {
		return Result{}, invalidDurationError(duration)
	}

	analysis, err := o.deps.Cache.Analyze(duration)
	if err != nil {
		return Result{}, invalidDurationError(duration)
	}
	metrics.GenerationCacheHitRate.Observe(analysis.HitRate)

	// Trim path: only worth attempting when the cache contributes
	// nothing; any cached coverage makes partial rendering cheaper.
	if o.cfg.TrimEnabled && o.deps.Trimmer != nil &&
		analysis.CachedCount == 0 && !analysis.ExactClip && analysis.DonorDuration == 0 &&
		o.deps.Trimmer.CanHandle(duration) {
		if res := o.deps.Trimmer.Trim(ctx, duration, onProgress); res.Success {
			result := o.finish(start, duration, SourceTrim, res.Blob, analysis.HitRate)
			return result, nil
		} else {
			metrics.TrimFallbacksTotal.Inc()
			logging.Warn("trim path failed for duration %d, falling back to rendering: %v", duration, res.Err)
		}
	}

	frames, source, err := o.obtainFrames(ctx, duration, analysis, onProgress)
	if err != nil {
		o.finishError(start, duration, source, analysis.HitRate, err)
		return Result{}, err
	}

	renderShare := 0.0
	if source == SourceRenderDirect || source == SourceRenderChunked {
		renderShare = 0.5
	}
	encodeProgress := func(p float64) {
		if onProgress != nil {
			onProgress(renderShare*100 + p*(1-renderShare))
		}
	}

	blob, err := o.deps.Chain.Encode(ctx, frames, o.cfg.FPS, encodeProgress, o.cfg.PreferredStrategy)
	if err != nil {
		var genErr *Error
		switch {
		case errors.Is(err, encoder.ErrNoEncoderAvailable):
			genErr = encoderUnavailableError(err)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			genErr = internalError(err)
		default:
			genErr = internalError(fmt.Errorf("encoding failed: %w", err))
		}
		o.finishError(start, duration, source, analysis.HitRate, genErr)
		return Result{}, genErr
	}

	result := o.finish(start, duration, source, blob, analysis.HitRate)
	return result, nil
}

// obtainFrames resolves the frame sequence for a duration: cache hit,
// donor extraction, or rendering. Rendered frames are stored back into
// both cache tiers.
func (o *Orchestrator) obtainFrames(ctx context.Context, duration int, analysis framecache.Analysis, onProgress encoder.ProgressFunc) ([]framecache.Frame, string, error) {
	// exact repeat of a previously produced duration
	if analysis.ExactClip {
		if frames, ok := o.deps.Cache.GetClip(duration); ok {
			logging.Debug("duration %d served from clip tier", duration)
			return frames, SourceCache, nil
		}
	}

	// every individual frame already cached
	if analysis.HitRate == 1 {
		frames, err := o.deps.Cache.Assemble(duration)
		if err != nil {
			// Analyze said full coverage; a gap here is a programming error.
			return nil, SourceCache, internalError(err)
		}
		o.storeClip(duration, frames)
		return frames, SourceCache, nil
	}

	// a longer cached clip can donate its tail; duration 0 always takes
	// the single-frame path instead of a degenerate stride
	if analysis.DonorDuration > 0 && duration > 0 {
		if donor, ok := o.deps.Cache.GetClip(analysis.DonorDuration); ok {
			frames, err := framecache.ExtractSubset(analysis.DonorDuration, donor, duration)
			if err != nil {
				return nil, SourceExtract, internalError(err)
			}
			logging.Debug("duration %d extracted from donor %d", duration, analysis.DonorDuration)
			o.storeClip(duration, frames)
			return frames, SourceExtract, nil
		}
	}

	renderProgress := func(p float64) {
		if onProgress != nil {
			onProgress(p / 2)
		}
	}

	// path selection on total required frames
	if analysis.TotalRequired >= o.cfg.ChunkThreshold {
		if err := o.renderChunked(ctx, analysis.MissingSeconds, analysis.TotalRequired, renderProgress); err != nil {
			return nil, SourceRenderChunked, err
		}
		frames, err := o.assembleRendered(duration)
		if err != nil {
			return nil, SourceRenderChunked, err
		}
		return frames, SourceRenderChunked, nil
	}

	// Cold cache below the threshold: one out-of-line worker renders the
	// whole range (the worker protocol carries only a total). With
	// partial coverage the renderer is driven per missing second
	// in-process instead.
	if analysis.CachedCount == 0 {
		frames, err := o.renderDirect(ctx, duration, renderProgress)
		if err != nil {
			return nil, SourceRenderDirect, err
		}
		for i, f := range frames {
			o.deps.Cache.PutFrame(duration-i, f)
		}
		metrics.RenderedFramesTotal.Add(float64(len(frames)))
		o.storeClip(duration, frames)
		return frames, SourceRenderDirect, nil
	}

	if err := o.renderMissing(ctx, analysis.MissingSeconds, analysis.TotalRequired, renderProgress); err != nil {
		return nil, SourceRenderDirect, err
	}
	frames, err := o.assembleRendered(duration)
	if err != nil {
		return nil, SourceRenderDirect, err
	}
	return frames, SourceRenderDirect, nil
}

// assembleRendered pulls the full sequence after a render pass filled
// the gaps, and caches the complete clip.
func (o *Orchestrator) assembleRendered(duration int) ([]framecache.Frame, error) {
	frames, err := o.deps.Cache.Assemble(duration)
	if err != nil {
		return nil, internalError(fmt.Errorf("render pass left gaps: %w", err))
	}
	o.storeClip(duration, frames)
	return frames, nil
}

func (o *Orchestrator) storeClip(duration int, frames []framecache.Frame) {
	if err := o.deps.Cache.PutClip(duration, frames); err != nil {
		logging.Warn("failed to cache clip for duration %d: %v", duration, err)
	}
}

// renderDirect dispatches one worker for the whole frame range and
// waits for completion. The worker is terminated on every exit path.
func (o *Orchestrator) renderDirect(ctx context.Context, duration int, onProgress encoder.ProgressFunc) ([]framecache.Frame, error) {
	w := renderworker.Start(ctx, o.deps.Renderer)
	defer w.Terminate()

	req := renderworker.Request{
		Action:       renderworker.ActionGenerate,
		TotalSeconds: duration,
		WorkerID:     renderworker.NewWorkerID(),
	}
	if err := w.Submit(req); err != nil {
		return nil, renderSurfaceError(err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, internalError(ctx.Err())
		case resp := <-w.Responses():
			switch resp.Type {
			case renderworker.TypeProgress:
				if onProgress != nil {
					onProgress(resp.Progress)
				}
			case renderworker.TypeComplete:
				return resp.Frames, nil
			case renderworker.TypeError:
				return nil, o.classifyRenderFailure(errors.New(resp.Err))
			}
		}
	}
}

// renderMissing fills cache gaps in-process without chunk pauses; used
// for partial hits at or below the chunk threshold.
func (o *Orchestrator) renderMissing(ctx context.Context, seconds []int, total int, onProgress encoder.ProgressFunc) error {
	rendered := total - len(seconds)
	for _, s := range seconds {
		if err := ctx.Err(); err != nil {
			return internalError(err)
		}
		frame, err := o.deps.Renderer.RenderFrame(ctx, s)
		if err != nil {
			return o.classifyRenderFailure(err)
		}
		o.deps.Cache.PutFrame(s, frame)
		metrics.RenderedFramesTotal.Inc()
		rendered++
		if onProgress != nil {
			onProgress(float64(rendered) / float64(total) * 100)
		}
	}
	return nil
}

// renderChunked renders missing frames in memory-pressure-sized batches
// with a cooperative pause after each batch so the allocator can
// reclaim frame buffers. Pressure is re-sampled every few chunks and
// context deadline/cancellation is honored between chunks.
func (o *Orchestrator) renderChunked(ctx context.Context, seconds []int, total int, onProgress encoder.ProgressFunc) error {
	cfg := memory.ChunkConfigFor(o.pressure())
	logging.Debug("chunked render: %d frames, chunk size %d, pause %v", len(seconds), cfg.ChunkSize, cfg.Pause)

	rendered := total - len(seconds)
	chunk := 0
	for start := 0; start < len(seconds); start += cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return internalError(err)
		}

		chunk++
		if o.deps.Monitor != nil && chunk%memoryCheckEvery == 0 {
			o.deps.Monitor.Refresh()
			cfg = memory.ChunkConfigFor(o.pressure())
		}
		if o.deps.Monitor != nil && !o.deps.Monitor.WaitIfPaused() {
			return memoryError(errors.New("memory monitor stopped while paused"))
		}

		end := start + cfg.ChunkSize
		if end > len(seconds) {
			end = len(seconds)
		}

		for _, s := range seconds[start:end] {
			frame, err := o.deps.Renderer.RenderFrame(ctx, s)
			if err != nil {
				return o.classifyRenderFailure(err)
			}
			o.deps.Cache.PutFrame(s, frame)
			metrics.RenderedFramesTotal.Inc()
			rendered++
			if onProgress != nil {
				onProgress(float64(rendered) / float64(total) * 100)
			}
		}

		if end < len(seconds) {
			select {
			case <-time.After(cfg.Pause):
			case <-ctx.Done():
				return internalError(ctx.Err())
			}
		}
	}
	return nil
}

// classifyRenderFailure maps a renderer error to the failure taxonomy:
// failures under memory pressure are memory errors, everything else is
// a rendering-surface failure.
func (o *Orchestrator) classifyRenderFailure(err error) *Error {
	if o.deps.Monitor != nil && o.pressure() >= memory.PressureCritical {
		return memoryError(err)
	}
	return renderSurfaceError(err)
}

func (o *Orchestrator) pressure() memory.Pressure {
	if o.deps.Monitor == nil {
		return memory.PressureHealthy
	}
	return o.deps.Monitor.Pressure()
}

// finish records a successful generation in metrics and history and
// builds the result.
func (o *Orchestrator) finish(start time.Time, duration int, source string, blob encoder.Blob, hitRate float64) Result {
	elapsed := time.Since(start)

	result := Result{
		Blob:     blob,
		Duration: duration,
		Source:   source,
		HitRate:  hitRate,
		Elapsed:  elapsed,
	}
	if o.cfg.MaxBlobBytes > 0 && blob.Size() > o.cfg.MaxBlobBytes {
		result.Oversize = true
		logging.Warn("generated blob for duration %d is %d bytes, over the %d byte cap",
			duration, blob.Size(), o.cfg.MaxBlobBytes)
	}

	metrics.GenerationsTotal.WithLabelValues(source, "success").Inc()
	metrics.GenerationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	metrics.GenerationBlobBytes.Observe(float64(blob.Size()))
	o.updateCacheGauges()

	if o.deps.Recorder != nil {
		o.deps.Recorder.RecordGeneration(Record{
			Time:     start,
			Duration: duration,
			Source:   source,
			MIME:     blob.MIME,
			Bytes:    blob.Size(),
			HitRate:  hitRate,
			Elapsed:  elapsed,
			Status:   "success",
		})
	}

	logging.Info("generated %ds sticker via %s: %d bytes in %v (hit rate %.0f%%)",
		duration, source, blob.Size(), elapsed.Round(time.Millisecond), hitRate*100)
	return result
}

func (o *Orchestrator) finishError(start time.Time, duration int, source string, hitRate float64, err error) {
	elapsed := time.Since(start)

	metrics.GenerationsTotal.WithLabelValues(source, "error").Inc()
	metrics.GenerationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	o.updateCacheGauges()

	if o.deps.Recorder != nil {
		o.deps.Recorder.RecordGeneration(Record{
			Time:     start,
			Duration: duration,
			Source:   source,
			HitRate:  hitRate,
			Elapsed:  elapsed,
			Status:   "error",
			Error:    err.Error(),
		})
	}

	logging.Error("generation of %ds sticker failed via %s after %v: %v",
		duration, source, elapsed.Round(time.Millisecond), err)
}

func (o *Orchestrator) updateCacheGauges() {
	info := o.deps.Cache.SizeInfo()
	metrics.CacheFrames.WithLabelValues("seconds").Set(float64(info.FrameCount))
	metrics.CacheFrames.WithLabelValues("clips").Set(float64(info.ClipFrameCount))
	metrics.CacheBytes.Set(float64(info.ApproxBytes))
}
