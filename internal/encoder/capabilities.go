package encoder

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"timer-stickers/internal/logging"
)

// Capabilities describes what the local ffmpeg installation can encode.
// It is built once at startup and passed down explicitly so tests can
// inject arbitrary capability sets.
type Capabilities struct {
	// FFmpegPath is the resolved ffmpeg binary ("" when not found).
	FFmpegPath string
	// Encoders holds the names of available video encoders.
	Encoders map[string]bool
}

// Has reports whether a video encoder is available.
func (c Capabilities) Has(encoder string) bool {
	return c.FFmpegPath != "" && c.Encoders[encoder]
}

// Probe inspects the local ffmpeg installation. A missing binary or a
// failed probe yields empty capabilities, which makes every ffmpeg
// strategy report unsupported.
func Probe(ctx context.Context) Capabilities {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		logging.Warn("ffmpeg not found in PATH, encoding disabled: %v", err)
		return Capabilities{}
	}

	cmd := exec.CommandContext(ctx, path, "-hide_banner", "-encoders")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logging.Warn("ffmpeg encoder probe failed: %v - %s", err, stderr.String())
		return Capabilities{}
	}

	caps := Capabilities{
		FFmpegPath: path,
		Encoders:   parseEncoders(stdout.String()),
	}
	logging.Info("ffmpeg probe: %s, %d encoders", path, len(caps.Encoders))
	return caps
}

// parseEncoders extracts video encoder names from `ffmpeg -encoders`
// output. Encoder lines follow a "------" separator and look like
// " V....D libvpx-vp9  libvpx VP9 (codec vp9)".
func parseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	seenSeparator := false

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !seenSeparator {
			if strings.HasPrefix(trimmed, "---") {
				seenSeparator = true
			}
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		// first field is the capability flag block; video encoders start with V
		if !strings.HasPrefix(fields[0], "V") {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}
