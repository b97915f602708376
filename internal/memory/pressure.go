package memory

import (
	"fmt"
	"time"
)

// Pressure classifies current heap usage relative to the limit.
type Pressure int

const (
	// PressureHealthy means usage is comfortably below the limit.
	PressureHealthy Pressure = iota
	// PressureWarning means usage is elevated; batch sizes shrink.
	PressureWarning
	// PressureCritical means usage is near the limit; batches shrink
	// further and pauses lengthen.
	PressureCritical
	// PressureEmergency means usage is at or above the critical water
	// mark; rendering proceeds in minimal batches.
	PressureEmergency
)

// Classification thresholds as a fraction of the memory limit.
const (
	warningThreshold  = 0.50
	criticalThreshold = 0.70
)

// Chunk size bounds for chunked rendering.
const (
	MinChunkSize = 25
	MaxChunkSize = 200
)

// ChunkConfig is the per-request rendering batch configuration derived
// from live memory pressure. It is recomputed for every generation
// request and never persisted.
type ChunkConfig struct {
	// ChunkSize is the number of frames rendered per batch.
	ChunkSize int
	// Pause is the cooperative delay between batches.
	Pause time.Duration
}

// ChunkConfigFor maps a pressure level to a batch configuration.
// Chunk sizes stay within [MinChunkSize, MaxChunkSize].
func ChunkConfigFor(p Pressure) ChunkConfig {
	switch p {
	case PressureEmergency:
		return ChunkConfig{ChunkSize: MinChunkSize, Pause: 750 * time.Millisecond}
	case PressureCritical:
		return ChunkConfig{ChunkSize: 50, Pause: 250 * time.Millisecond}
	case PressureWarning:
		return ChunkConfig{ChunkSize: 100, Pause: 100 * time.Millisecond}
	default:
		return ChunkConfig{ChunkSize: MaxChunkSize, Pause: 25 * time.Millisecond}
	}
}

// Pressure classifies the monitor's current usage ratio. With no limit
// configured the monitor always reports healthy.
func (m *Monitor) Pressure() Pressure {
	if m.limit == 0 {
		return PressureHealthy
	}

	m.mu.RLock()
	usage := float64(m.current) / float64(m.limit)
	paused := m.isPaused
	m.mu.RUnlock()

	switch {
	case paused || usage >= m.config.CriticalWaterMark:
		return PressureEmergency
	case usage >= criticalThreshold:
		return PressureCritical
	case usage >= warningThreshold:
		return PressureWarning
	default:
		return PressureHealthy
	}
}

// String returns the pressure level name.
func (p Pressure) String() string {
	switch p {
	case PressureHealthy:
		return "healthy"
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	case PressureEmergency:
		return "emergency"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}
