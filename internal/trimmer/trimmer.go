package trimmer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/logging"
)

// MaxTrimDuration is the longest duration the master asset covers:
// one hour minus one second.
const MaxTrimDuration = 3599

// maxMasterBytes caps the in-memory master asset size.
const maxMasterBytes = 128 << 20

// ErrInvalidDuration means the requested duration is outside the
// trimmable range (0, MaxTrimDuration].
var ErrInvalidDuration = errors.New("duration outside trimmable range")

// Result is the structured outcome of a trim attempt. Failures are
// carried in Err with Success false; Trim never panics or returns a Go
// error directly, so callers fall back to rendering on !Success.
type Result struct {
	Blob    encoder.Blob
	Size    int64
	Success bool
	Err     error
}

// Trimmer slices the pre-rendered master clip to arbitrary
// sub-durations.
type Trimmer struct {
	masterURL string
	caps      encoder.Capabilities
	fps       int
	client    *http.Client

	mu     sync.Mutex
	master []byte
}

// New creates a trimmer for the master asset at masterURL.
func New(masterURL string, caps encoder.Capabilities, fps int) *Trimmer {
	return &Trimmer{
		masterURL: masterURL,
		caps:      caps,
		fps:       fps,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// CanHandle reports whether a duration is inside the master asset's
// bound.
func (t *Trimmer) CanHandle(duration int) bool {
	return duration > 0 && duration <= MaxTrimDuration
}

// Trim produces a clip for the requested duration from the master
// asset. onProgress may be nil.
func (t *Trimmer) Trim(ctx context.Context, duration int, onProgress encoder.ProgressFunc) Result {
	if !t.CanHandle(duration) {
		return Result{Err: fmt.Errorf("%w: %d", ErrInvalidDuration, duration)}
	}

	enc, mime := t.selectEncoder()
	if enc == "" {
		return Result{Err: encoder.ErrNoEncoderAvailable}
	}

	master, err := t.fetchMaster(ctx)
	if err != nil {
		return Result{Err: fmt.Errorf("master asset unavailable: %w", err)}
	}
	report(onProgress, 10)

	blob, err := t.slice(ctx, master, duration, enc, mime, onProgress)
	if err != nil {
		return Result{Err: err}
	}
	report(onProgress, 100)

	return Result{Blob: blob, Size: blob.Size(), Success: true}
}

// selectEncoder picks the alpha-capable encoder to re-encode the
// trimmed range with, preferring VP9.
func (t *Trimmer) selectEncoder() (name, mime string) {
	switch {
	case t.caps.Has("libvpx-vp9"):
		return "libvpx-vp9", "video/webm;codecs=vp9"
	case t.caps.Has("libvpx"):
		return "libvpx", "video/webm;codecs=vp8"
	default:
		return "", ""
	}
}

// fetchMaster downloads and caches the master asset once per process.
func (t *Trimmer) fetchMaster(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.master != nil {
		return t.master, nil
	}
	if t.masterURL == "" {
		return nil, errors.New("no master asset URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.masterURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build master request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch master: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("failed to close master asset response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch master: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMasterBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read master: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("master asset is empty")
	}
	if len(data) > maxMasterBytes {
		return nil, fmt.Errorf("master asset exceeds %d bytes", maxMasterBytes)
	}

	t.master = data
	logging.Info("master asset cached: %d bytes from %s", len(data), t.masterURL)
	return t.master, nil
}

// slice runs the decode→trim→re-encode pipeline over the cached master
// bytes. The extracted range is [0, duration] inclusive, so at 1 fps
// the output holds duration+1 frames.
func (t *Trimmer) slice(ctx context.Context, master []byte, duration int, enc, mime string, onProgress encoder.ProgressFunc) (encoder.Blob, error) {
	in, err := os.CreateTemp("", "master-*.webm")
	if err != nil {
		return encoder.Blob{}, fmt.Errorf("create master temp file: %w", err)
	}
	inPath := in.Name()
	defer removeTemp(inPath)

	if _, err := in.Write(master); err != nil {
		_ = in.Close()
		return encoder.Blob{}, fmt.Errorf("write master temp file: %w", err)
	}
	if err := in.Close(); err != nil {
		return encoder.Blob{}, fmt.Errorf("close master temp file: %w", err)
	}

	out, err := os.CreateTemp("", "trimmed-*.webm")
	if err != nil {
		return encoder.Blob{}, fmt.Errorf("create output temp file: %w", err)
	}
	outPath := out.Name()
	_ = out.Close()
	defer removeTemp(outPath)

	report(onProgress, 25)

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", "0",
		"-t", strconv.Itoa(duration + 1),
		"-i", inPath,
		"-c:v", enc,
		"-pix_fmt", "yuva420p",
		"-b:v", "400k",
		"-auto-alt-ref", "0",
		"-vf", "scale=512:512",
		"-r", strconv.Itoa(t.fps),
		"-an",
		"-f", "webm",
		outPath,
	}

	cmd := exec.CommandContext(ctx, t.caps.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return encoder.Blob{}, ctx.Err()
		}
		return encoder.Blob{}, fmt.Errorf("trim ffmpeg failed: %w - %s", err, stderr.String())
	}
	report(onProgress, 90)

	data, err := os.ReadFile(outPath)
	if err != nil {
		return encoder.Blob{}, fmt.Errorf("read trimmed output: %w", err)
	}
	if len(data) == 0 {
		return encoder.Blob{}, errors.New("trim produced empty output")
	}

	return encoder.Blob{Data: data, MIME: mime}, nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove temp file %s: %v", path, err)
	}
}

func report(onProgress encoder.ProgressFunc, percent float64) {
	if onProgress != nil {
		onProgress(percent)
	}
}
