package framecache

import (
	"image"
	"sync"
)

// FrameSize is the fixed width and height of every rendered frame.
const FrameSize = 512

// Frame is one rendered countdown bitmap for a specific remaining-seconds
// value. Frames carry an alpha channel and are immutable once cached.
type Frame = *image.NRGBA

// frameBytes is the approximate in-memory cost of one frame (RGBA).
const frameBytes = FrameSize * FrameSize * 4

// Manager is the two-tier in-memory frame cache. It is safe for
// concurrent use; all tier access goes through an internal RWMutex so
// concurrent requests cannot observe a clip mid-insert.
type Manager struct {
	mu      sync.RWMutex
	seconds map[int]Frame   // remaining seconds -> frame
	clips   map[int][]Frame // total duration -> D+1 frames, ordered D..0
}

// NewManager creates an empty cache manager.
func NewManager() *Manager {
	return &Manager{
		seconds: make(map[int]Frame),
		clips:   make(map[int][]Frame),
	}
}

// PutFrame stores a frame in the second-indexed tier. Negative keys are
// ignored; re-inserting an existing key replaces the frame.
func (m *Manager) PutFrame(remaining int, f Frame) {
	if remaining < 0 || f == nil {
		return
	}
	m.mu.Lock()
	m.seconds[remaining] = f
	m.mu.Unlock()
}

// GetFrame returns the frame for a remaining-seconds value, if cached.
func (m *Manager) GetFrame(remaining int) (Frame, bool) {
	m.mu.RLock()
	f, ok := m.seconds[remaining]
	m.mu.RUnlock()
	return f, ok
}

// PutClip stores a complete clip sequence in the duration-indexed tier.
// The sequence must hold exactly duration+1 frames (countdown from
// duration to zero); anything else violates the tier invariant and is
// rejected.
func (m *Manager) PutClip(duration int, frames []Frame) error {
	if duration < 0 {
		return ErrInvalidDuration
	}
	if len(frames) != duration+1 {
		return &ExtractionError{
			DonorDuration: duration,
			Target:        duration,
			Reason:        "clip length does not equal duration+1",
		}
	}
	m.mu.Lock()
	m.clips[duration] = frames
	m.mu.Unlock()
	return nil
}

// GetClip returns the cached clip sequence for an exact duration.
func (m *Manager) GetClip(duration int) ([]Frame, bool) {
	m.mu.RLock()
	frames, ok := m.clips[duration]
	m.mu.RUnlock()
	return frames, ok
}

// ClearFrames empties the second-indexed tier.
func (m *Manager) ClearFrames() {
	m.mu.Lock()
	m.seconds = make(map[int]Frame)
	m.mu.Unlock()
}

// ClearClips empties the duration-indexed tier.
func (m *Manager) ClearClips() {
	m.mu.Lock()
	m.clips = make(map[int][]Frame)
	m.mu.Unlock()
}

// Clear empties both tiers.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.seconds = make(map[int]Frame)
	m.clips = make(map[int][]Frame)
	m.mu.Unlock()
}

// SizeInfo describes the current cache footprint for memory-accounting
// callers.
type SizeInfo struct {
	FrameCount     int   `json:"frameCount"`
	ClipCount      int   `json:"clipCount"`
	ClipFrameCount int   `json:"clipFrameCount"`
	ApproxBytes    int64 `json:"approxBytes"`
}

// SizeInfo reports frame counts per tier and the approximate total
// bitmap footprint.
func (m *Manager) SizeInfo() SizeInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := SizeInfo{
		FrameCount: len(m.seconds),
		ClipCount:  len(m.clips),
	}
	for _, frames := range m.clips {
		info.ClipFrameCount += len(frames)
	}
	info.ApproxBytes = int64(info.FrameCount+info.ClipFrameCount) * frameBytes
	return info
}
