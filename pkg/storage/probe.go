package storage

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFprobe reads media duration with the ffprobe binary.
type FFprobe struct {
	Path string
}

// Duration returns the container duration of localPath in seconds.
func (p FFprobe) Duration(ctx context.Context, localPath string) (float64, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		localPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return ParseDuration(string(out))
}

// ParseDuration parses ffprobe's bare duration output ("12.345000\n").
func ParseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe: no duration reported")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("ffprobe: negative duration %v", d)
	}
	return d, nil
}
