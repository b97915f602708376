package encoder

import (
	"context"
	"errors"
	"testing"

	"timer-stickers/internal/framecache"
)

type fakeStrategy struct {
	name      string
	supported bool
	err       error
	calls     int
	lastFPS   int
}

func (f *fakeStrategy) Name() string      { return f.name }
func (f *fakeStrategy) MIME() string      { return "video/test;codecs=" + f.name }
func (f *fakeStrategy) IsSupported() bool { return f.supported }

func (f *fakeStrategy) Encode(ctx context.Context, frames []framecache.Frame, fps int, onProgress ProgressFunc) (Blob, error) {
	f.calls++
	f.lastFPS = fps
	if f.err != nil {
		return Blob{}, f.err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return Blob{Data: []byte(f.name), MIME: f.MIME()}, nil
}

func someFrames(n int) []framecache.Frame {
	return make([]framecache.Frame, n)
}

func TestChainUsesFirstSupported(t *testing.T) {
	first := &fakeStrategy{name: "vp9", supported: true}
	second := &fakeStrategy{name: "vp8", supported: true}
	chain := NewChainWith(first, second)

	blob, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(blob.Data) != "vp9" {
		t.Errorf("blob from %q, want vp9", blob.Data)
	}
	if second.calls != 0 {
		t.Errorf("second strategy called %d times, want 0", second.calls)
	}
}

func TestChainSkipsUnsupported(t *testing.T) {
	first := &fakeStrategy{name: "vp9", supported: false}
	second := &fakeStrategy{name: "vp8", supported: true}
	chain := NewChainWith(first, second)

	blob, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(blob.Data) != "vp8" {
		t.Errorf("blob from %q, want vp8", blob.Data)
	}
	if first.calls != 0 {
		t.Errorf("unsupported strategy was invoked %d times", first.calls)
	}
}

func TestChainFallsThroughOnFailure(t *testing.T) {
	boom := errors.New("encoder crashed")
	first := &fakeStrategy{name: "vp9", supported: true, err: boom}
	second := &fakeStrategy{name: "vp8", supported: true}
	chain := NewChainWith(first, second)

	blob, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(blob.Data) != "vp8" {
		t.Errorf("blob from %q, want vp8", blob.Data)
	}
	if first.calls != 1 {
		t.Errorf("failing strategy called %d times, want 1", first.calls)
	}
}

func TestChainNoEncoderAvailable(t *testing.T) {
	chain := NewChainWith(
		&fakeStrategy{name: "vp9"},
		&fakeStrategy{name: "vp8"},
		&fakeStrategy{name: "qtrle"},
	)

	_, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "")
	if !errors.Is(err, ErrNoEncoderAvailable) {
		t.Fatalf("err = %v, want ErrNoEncoderAvailable", err)
	}
}

func TestChainExhaustedPropagatesLastError(t *testing.T) {
	firstErr := errors.New("first failed")
	lastErr := errors.New("last failed")
	chain := NewChainWith(
		&fakeStrategy{name: "vp9", supported: true, err: firstErr},
		&fakeStrategy{name: "vp8", supported: true, err: lastErr},
	)

	_, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "")
	if err == nil {
		t.Fatal("expected error after exhausting all strategies")
	}
	if errors.Is(err, ErrNoEncoderAvailable) {
		t.Error("exhaustion must not report ErrNoEncoderAvailable")
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("err = %v, want wrapped %v", err, lastErr)
	}
}

func TestChainPreferredFirst(t *testing.T) {
	first := &fakeStrategy{name: "vp9", supported: true}
	second := &fakeStrategy{name: "qtrle", supported: true}
	chain := NewChainWith(first, second)

	blob, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "qtrle")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(blob.Data) != "qtrle" {
		t.Errorf("blob from %q, want preferred qtrle", blob.Data)
	}
	if first.calls != 0 {
		t.Errorf("non-preferred strategy called %d times, want 0", first.calls)
	}
}

func TestChainPreferredUnsupportedFallsBack(t *testing.T) {
	first := &fakeStrategy{name: "vp9", supported: true}
	second := &fakeStrategy{name: "qtrle", supported: false}
	chain := NewChainWith(first, second)

	blob, err := chain.Encode(context.Background(), someFrames(3), 1, nil, "qtrle")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(blob.Data) != "vp9" {
		t.Errorf("blob from %q, want vp9", blob.Data)
	}
}

func TestChainContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeStrategy{name: "vp9", supported: true, err: errors.New("interrupted")}
	second := &fakeStrategy{name: "vp8", supported: true}
	chain := NewChainWith(first, second)

	cancel()
	_, err := chain.Encode(ctx, someFrames(3), 1, nil, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if second.calls != 0 {
		t.Error("chain kept trying strategies after cancellation")
	}
}

func TestChainPassesFPS(t *testing.T) {
	s := &fakeStrategy{name: "vp9", supported: true}
	chain := NewChainWith(s)

	if _, err := chain.Encode(context.Background(), someFrames(2), 30, nil, ""); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if s.lastFPS != 30 {
		t.Errorf("fps = %d, want 30", s.lastFPS)
	}
}
