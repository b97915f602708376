package logging

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		debug string
		level string
		want  LogLevel
	}{
		{"default", "", "", LevelInfo},
		{"debug level", "", "debug", LevelDebug},
		{"info level", "", "info", LevelInfo},
		{"warn level", "", "warn", LevelWarn},
		{"warning alias", "", "warning", LevelWarn},
		{"error level", "", "error", LevelError},
		{"mixed case", "", "ERROR", LevelError},
		{"unrecognized falls back to info", "", "verbose", LevelInfo},
		{"DEBUG=1 wins over LOG_LEVEL", "1", "error", LevelDebug},
		{"DEBUG=true", "true", "", LevelDebug},
		{"DEBUG=on", "on", "warn", LevelDebug},
		{"falsy DEBUG is ignored", "0", "warn", LevelWarn},
		{"garbage DEBUG is ignored", "maybe", "error", LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.debug, tt.level); got != tt.want {
				t.Errorf("parseLevel(%q, %q) = %v, want %v", tt.debug, tt.level, got, tt.want)
			}
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("levels out of order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestIsDebugEnabled(t *testing.T) {
	// GetLevel latches on first use, so only consistency can be checked.
	if got := IsDebugEnabled(); got != (GetLevel() <= LevelDebug) {
		t.Errorf("IsDebugEnabled() = %v with level %v", got, GetLevel())
	}
}

func TestLeveledOutput(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"debug", func() { Debug("cache warm, %d frames", 42) }},
		{"info", func() { Info("clip stored") }},
		{"warn", func() { Warn("encoder %s unavailable", "vp9") }},
		{"error", func() { Error("render failed: %v", "surface lost") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("logging panicked: %v", r)
				}
			}()
			tt.fn()
		})
	}
}

func TestLogLevelString(t *testing.T) {
	names := map[LogLevel]string{
		LevelDebug:   "debug",
		LevelInfo:    "info",
		LevelWarn:    "warn",
		LevelError:   "error",
		LogLevel(99): "unknown(99)",
	}
	for level, want := range names {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", int(level), got, want)
		}
	}
}
