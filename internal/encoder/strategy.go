package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"os/exec"
	"strconv"

	"timer-stickers/internal/framecache"
	"timer-stickers/internal/logging"
)

// Blob is a finished single-file video clip plus its container/codec
// MIME tag.
type Blob struct {
	Data []byte
	MIME string
}

// Size returns the blob length in bytes.
func (b Blob) Size() int64 {
	return int64(len(b.Data))
}

// ProgressFunc receives encoding progress in the range 0-100.
type ProgressFunc func(percent float64)

// Strategy turns an ordered frame sequence into a video blob.
type Strategy interface {
	// Name identifies the strategy ("vp9", "vp8", "qtrle").
	Name() string
	// MIME is the container/codec tag attached to produced blobs.
	MIME() string
	// IsSupported reports whether the strategy can run at all.
	IsSupported() bool
	// Encode produces the blob. onProgress may be nil.
	Encode(ctx context.Context, frames []framecache.Frame, fps int, onProgress ProgressFunc) (Blob, error)
}

// ffmpegStrategy encodes by piping PNG frames into an ffmpeg child
// process. All three shipped strategies share this implementation and
// differ only in encoder, pixel format and container.
type ffmpegStrategy struct {
	name      string
	mime      string
	encoder   string
	pixFmt    string
	container string
	extraArgs []string
	caps      Capabilities
}

// NewVP9Strategy encodes WebM/VP9 with alpha. Preferred: best
// size/quality for sticker payload caps.
func NewVP9Strategy(caps Capabilities) Strategy {
	return &ffmpegStrategy{
		name:      "vp9",
		mime:      "video/webm;codecs=vp9",
		encoder:   "libvpx-vp9",
		pixFmt:    "yuva420p",
		container: "webm",
		// alt-ref frames break alpha in libvpx
		extraArgs: []string{"-b:v", "400k", "-auto-alt-ref", "0"},
		caps:      caps,
	}
}

// NewVP8Strategy encodes WebM/VP8 with alpha; the compatibility
// fallback when the VP9 encoder is unavailable.
func NewVP8Strategy(caps Capabilities) Strategy {
	return &ffmpegStrategy{
		name:      "vp8",
		mime:      "video/webm;codecs=vp8",
		encoder:   "libvpx",
		pixFmt:    "yuva420p",
		container: "webm",
		extraArgs: []string{"-b:v", "500k", "-auto-alt-ref", "0"},
		caps:      caps,
	}
}

// NewQTRLEStrategy encodes QuickTime Animation in a MOV container, the
// lossless last resort when neither VPx encoder is present.
func NewQTRLEStrategy(caps Capabilities) Strategy {
	return &ffmpegStrategy{
		name:      "qtrle",
		mime:      "video/quicktime",
		encoder:   "qtrle",
		pixFmt:    "argb",
		container: "mov",
		caps:      caps,
	}
}

func (s *ffmpegStrategy) Name() string { return s.name }
func (s *ffmpegStrategy) MIME() string { return s.mime }

func (s *ffmpegStrategy) IsSupported() bool {
	return s.caps.Has(s.encoder)
}

func (s *ffmpegStrategy) Encode(ctx context.Context, frames []framecache.Frame, fps int, onProgress ProgressFunc) (Blob, error) {
	if len(frames) == 0 {
		return Blob{}, fmt.Errorf("%s: no frames to encode", s.name)
	}
	if fps <= 0 {
		return Blob{}, fmt.Errorf("%s: invalid fps %d", s.name, fps)
	}

	// MOV (and friends) need seekable output, so every strategy encodes
	// to a temp file and reads it back.
	out, err := os.CreateTemp("", "sticker-*."+s.container)
	if err != nil {
		return Blob{}, fmt.Errorf("%s: create output file: %w", s.name, err)
	}
	outPath := out.Name()
	_ = out.Close()
	defer func() {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			logging.Warn("%s: failed to remove temp output %s: %v", s.name, outPath, err)
		}
	}()

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-framerate", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", s.encoder,
		"-pix_fmt", s.pixFmt,
	}
	args = append(args, s.extraArgs...)
	args = append(args, "-f", s.container, outPath)

	cmd := exec.CommandContext(ctx, s.caps.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Blob{}, fmt.Errorf("%s: create stdin pipe: %w", s.name, err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return Blob{}, fmt.Errorf("%s: start ffmpeg: %w", s.name, err)
	}

	// The encoder process must never outlive this call, whatever the
	// exit path.
	waited := false
	defer func() {
		if !waited {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			_ = cmd.Wait()
		}
	}()

	if err := s.writeFrames(ctx, stdin, frames, onProgress); err != nil {
		_ = stdin.Close()
		return Blob{}, err
	}
	if err := stdin.Close(); err != nil {
		return Blob{}, fmt.Errorf("%s: close frame pipe: %w", s.name, err)
	}

	waited = true
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return Blob{}, ctx.Err()
		}
		return Blob{}, fmt.Errorf("%s: ffmpeg failed: %w - %s", s.name, err, stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Blob{}, fmt.Errorf("%s: read output: %w", s.name, err)
	}
	if len(data) == 0 {
		return Blob{}, fmt.Errorf("%s: ffmpeg produced empty output - %s", s.name, stderr.String())
	}

	return Blob{Data: data, MIME: s.mime}, nil
}

// writeFrames streams PNG-encoded frames into the ffmpeg pipe. One
// working surface is reused for every frame; it is cleared to fully
// transparent before each draw so the alpha background survives.
func (s *ffmpegStrategy) writeFrames(ctx context.Context, pipe io.Writer, frames []framecache.Frame, onProgress ProgressFunc) error {
	bounds := image.Rect(0, 0, framecache.FrameSize, framecache.FrameSize)
	surface := image.NewNRGBA(bounds)

	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if frame == nil {
			return fmt.Errorf("%s: nil frame at position %d", s.name, i)
		}

		draw.Draw(surface, bounds, image.Transparent, image.Point{}, draw.Src)
		draw.Draw(surface, bounds, frame, frame.Bounds().Min, draw.Over)

		if err := png.Encode(pipe, surface); err != nil {
			return fmt.Errorf("%s: write frame %d: %w", s.name, i, err)
		}

		if onProgress != nil {
			onProgress(float64(i+1) / float64(len(frames)) * 100)
		}
	}
	return nil
}
