package encoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timer-stickers/internal/framecache"
	"timer-stickers/internal/logging"
	"timer-stickers/internal/metrics"
)

// ErrNoEncoderAvailable means no strategy in the chain is supported by
// the local runtime.
var ErrNoEncoderAvailable = errors.New("no video encoding strategy available")

// Chain is the ordered set of encoding strategies, fastest and most
// compatible first.
type Chain struct {
	strategies []Strategy
}

// NewChain builds the default strategy chain for the given
// capabilities: vp9, then vp8, then qtrle.
func NewChain(caps Capabilities) *Chain {
	return NewChainWith(
		NewVP9Strategy(caps),
		NewVP8Strategy(caps),
		NewQTRLEStrategy(caps),
	)
}

// NewChainWith builds a chain from explicit strategies, in order. Used
// by tests to inject doubles.
func NewChainWith(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Strategies returns the chain entries in preference order.
func (c *Chain) Strategies() []Strategy {
	return c.strategies
}

// Encode produces a video blob from the frame sequence.
//
// Selection: the preferred strategy (by name) goes first when it is
// supported, then the remaining chain in order. An unsupported strategy
// is skipped; a supported strategy that fails is logged and the chain
// falls through to the next one. The error is ErrNoEncoderAvailable
// when nothing is supported, or the last failure once every supported
// strategy has been tried.
func (c *Chain) Encode(ctx context.Context, frames []framecache.Frame, fps int, onProgress ProgressFunc, preferred string) (Blob, error) {
	candidates := c.order(preferred)

	var lastErr error
	attempted := 0
	for _, s := range candidates {
		if !s.IsSupported() {
			metrics.EncodeAttemptsTotal.WithLabelValues(s.Name(), "unsupported").Inc()
			continue
		}

		attempted++
		start := time.Now()
		blob, err := s.Encode(ctx, frames, fps, onProgress)
		metrics.EncodeDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.EncodeAttemptsTotal.WithLabelValues(s.Name(), "success").Inc()
			logging.Debug("encoded %d frames with %s: %d bytes", len(frames), s.Name(), len(blob.Data))
			return blob, nil
		}

		metrics.EncodeAttemptsTotal.WithLabelValues(s.Name(), "error").Inc()
		if ctx.Err() != nil {
			return Blob{}, ctx.Err()
		}
		logging.Warn("encoding strategy %s failed, trying next: %v", s.Name(), err)
		lastErr = err
	}

	if attempted == 0 {
		return Blob{}, ErrNoEncoderAvailable
	}
	return Blob{}, fmt.Errorf("all supported encoding strategies failed: %w", lastErr)
}

// order returns the strategies with the preferred one (if supported)
// moved to the front.
func (c *Chain) order(preferred string) []Strategy {
	if preferred == "" {
		return c.strategies
	}

	var head Strategy
	for _, s := range c.strategies {
		if s.Name() == preferred && s.IsSupported() {
			head = s
			break
		}
	}
	if head == nil {
		return c.strategies
	}

	ordered := make([]Strategy, 0, len(c.strategies))
	ordered = append(ordered, head)
	for _, s := range c.strategies {
		if s != head {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
