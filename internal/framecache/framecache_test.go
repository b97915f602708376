package framecache

import (
	"image"
	"testing"

	"github.com/longbridgeapp/assert"
)

// frameFor builds a distinguishable frame for a remaining-seconds value
// so tests can verify temporal ordering.
func frameFor(remaining int) Frame {
	f := image.NewNRGBA(image.Rect(0, 0, FrameSize, FrameSize))
	f.Pix[0] = byte(remaining)
	f.Pix[1] = byte(remaining >> 8)
	return f
}

// remainingOf reverses frameFor.
func remainingOf(f Frame) int {
	return int(f.Pix[0]) | int(f.Pix[1])<<8
}

func TestPutGetFrame(t *testing.T) {
	m := NewManager()

	_, ok := m.GetFrame(3)
	assert.False(t, ok)

	m.PutFrame(3, frameFor(3))
	f, ok := m.GetFrame(3)
	assert.True(t, ok)
	assert.Equal(t, 3, remainingOf(f))

	// negative keys and nil frames are dropped
	m.PutFrame(-1, frameFor(0))
	m.PutFrame(4, nil)
	_, ok = m.GetFrame(-1)
	assert.False(t, ok)
	_, ok = m.GetFrame(4)
	assert.False(t, ok)
}

func TestPutClipInvariant(t *testing.T) {
	m := NewManager()

	frames := []Frame{frameFor(2), frameFor(1), frameFor(0)}
	assert.Nil(t, m.PutClip(2, frames))

	got, ok := m.GetClip(2)
	assert.True(t, ok)
	assert.Equal(t, 3, len(got))

	// wrong-length sequences violate the tier invariant
	err := m.PutClip(3, frames)
	assert.NotNil(t, err)

	err = m.PutClip(-1, frames)
	assert.Equal(t, ErrInvalidDuration, err)
}

func TestClearVariants(t *testing.T) {
	m := NewManager()
	m.PutFrame(0, frameFor(0))
	m.PutFrame(1, frameFor(1))
	if err := m.PutClip(1, []Frame{frameFor(1), frameFor(0)}); err != nil {
		t.Fatalf("PutClip: %v", err)
	}

	m.ClearFrames()
	info := m.SizeInfo()
	assert.Equal(t, 0, info.FrameCount)
	assert.Equal(t, 1, info.ClipCount)

	m.PutFrame(0, frameFor(0))
	m.ClearClips()
	info = m.SizeInfo()
	assert.Equal(t, 1, info.FrameCount)
	assert.Equal(t, 0, info.ClipCount)

	m.Clear()
	info = m.SizeInfo()
	assert.Equal(t, 0, info.FrameCount)
	assert.Equal(t, 0, info.ClipCount)
}

func TestSizeInfo(t *testing.T) {
	m := NewManager()
	m.PutFrame(0, frameFor(0))
	m.PutFrame(1, frameFor(1))
	if err := m.PutClip(2, []Frame{frameFor(2), frameFor(1), frameFor(0)}); err != nil {
		t.Fatalf("PutClip: %v", err)
	}

	info := m.SizeInfo()
	assert.Equal(t, 2, info.FrameCount)
	assert.Equal(t, 1, info.ClipCount)
	assert.Equal(t, 3, info.ClipFrameCount)
	assert.Equal(t, int64(5)*frameBytes, info.ApproxBytes)
}
