// Package streaming delivers generated sticker blobs to HTTP clients
// with timeout protection. A slow or stalled client must never pin a
// handler goroutine (and the blob buffer it references) indefinitely,
// so every write races a deadline and large blobs go out in flushed
// chunks.
package streaming

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/logging"
)

var (
	// ErrWriteTimeout means a single write to the client exceeded the
	// configured timeout.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone means the client disconnected mid-delivery.
	ErrClientGone = errors.New("client disconnected")

	// ErrDeliveryCanceled means the delivery was canceled
	// programmatically.
	ErrDeliveryCanceled = errors.New("delivery canceled")
)

// Config tunes blob delivery.
type Config struct {
	// WriteTimeout bounds each individual write to the client.
	WriteTimeout time.Duration
	// MaxDuration bounds the whole delivery (0 = unlimited).
	MaxDuration time.Duration
	// ChunkSize splits large blobs into flushed chunks (0 = one write).
	ChunkSize int
	// OnProgress receives the running byte count, roughly once per MiB.
	OnProgress func(bytesWritten int64, elapsed time.Duration)
}

// DefaultConfig returns the delivery defaults: sticker blobs are small,
// so the per-write window is short.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 15 * time.Second,
		MaxDuration:  2 * time.Minute,
		ChunkSize:    64 * 1024,
	}
}

// Writer wraps an http.ResponseWriter with per-write deadlines.
type Writer struct {
	w       http.ResponseWriter
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     Config
	flusher http.Flusher

	mu           sync.Mutex
	start        time.Time
	bytesWritten int64
	closed       bool
}

// NewWriter creates a timeout-protected writer bound to the request
// context.
func NewWriter(ctx context.Context, w http.ResponseWriter, cfg Config) *Writer {
	writerCtx, cancel := context.WithCancel(ctx)

	tw := &Writer{
		w:      w,
		ctx:    writerCtx,
		cancel: cancel,
		cfg:    cfg,
		start:  time.Now(),
	}
	if flusher, ok := w.(http.Flusher); ok {
		tw.flusher = flusher
	}
	return tw
}

// Write implements io.Writer with timeout protection. Blobs larger than
// the chunk size are written and flushed chunk by chunk.
func (tw *Writer) Write(p []byte) (int, error) {
	tw.mu.Lock()
	if tw.closed {
		tw.mu.Unlock()
		return 0, ErrDeliveryCanceled
	}
	tw.mu.Unlock()

	select {
	case <-tw.ctx.Done():
		return 0, tw.contextError()
	default:
	}

	if tw.cfg.MaxDuration > 0 && time.Since(tw.start) > tw.cfg.MaxDuration {
		return 0, ErrWriteTimeout
	}

	if tw.cfg.ChunkSize > 0 && len(p) > tw.cfg.ChunkSize {
		return tw.writeChunked(p)
	}
	return tw.writeWithTimeout(p)
}

func (tw *Writer) writeChunked(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		select {
		case <-tw.ctx.Done():
			return total, tw.contextError()
		default:
		}

		size := tw.cfg.ChunkSize
		if len(p) < size {
			size = len(p)
		}

		n, err := tw.writeWithTimeout(p[:size])
		total += n
		if err != nil {
			return total, err
		}
		p = p[size:]

		if tw.flusher != nil {
			tw.flusher.Flush()
		}
	}
	return total, nil
}

func (tw *Writer) writeWithTimeout(p []byte) (int, error) {
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := tw.w.Write(p)
		resultCh <- writeResult{n, err}
	}()

	select {
	case result := <-resultCh:
		if result.err == nil {
			tw.mu.Lock()
			tw.bytesWritten += int64(result.n)
			written := tw.bytesWritten
			tw.mu.Unlock()

			if tw.cfg.OnProgress != nil && written%(1<<20) < int64(len(p)) {
				tw.cfg.OnProgress(written, time.Since(tw.start))
			}
		}
		return result.n, result.err

	case <-time.After(tw.cfg.WriteTimeout):
		tw.cancel()
		return 0, ErrWriteTimeout

	case <-tw.ctx.Done():
		return 0, tw.contextError()
	}
}

func (tw *Writer) contextError() error {
	if errors.Is(tw.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrDeliveryCanceled
}

// Close cancels any in-flight delivery. Safe to call more than once.
func (tw *Writer) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}
	tw.closed = true
	tw.cancel()
	return nil
}

// Stats returns bytes delivered so far and elapsed time.
func (tw *Writer) Stats() (bytesWritten int64, elapsed time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.bytesWritten, time.Since(tw.start)
}

// ServeBlob delivers an encoded sticker blob with content headers and
// timeout protection.
func ServeBlob(ctx context.Context, w http.ResponseWriter, blob encoder.Blob, cfg Config) error {
	tw := NewWriter(ctx, w, cfg)
	defer func() {
		if err := tw.Close(); err != nil {
			logging.Warn("failed to close blob writer: %v", err)
		}
	}()

	if blob.MIME != "" {
		w.Header().Set("Content-Type", blob.MIME)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(blob.Size(), 10))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	_, err := tw.Write(blob.Data)

	written, elapsed := tw.Stats()
	logging.Debug("blob delivery finished: %d of %d bytes in %v", written, blob.Size(), elapsed)
	return err
}
