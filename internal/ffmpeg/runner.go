package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"tomp4/internal/logging"
)

var command = exec.Command

// Runner executes ffmpeg invocations and forwards every diagnostic line to
// the logger as it is produced, so long encodes stream progress instead of
// buffering it.
type Runner struct {
	binary string
	logger *slog.Logger
}

// NewRunner wraps the resolved ffmpeg binary.
func NewRunner(binary string, logger *slog.Logger) *Runner {
	return &Runner{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// Run launches ffmpeg with args and blocks until it exits, returning the
// exit code. A non-zero exit is not an error here; callers decide what it
// means. Stdout is discarded — ffmpeg writes the media to the destination
// path, not to stdout.
//
// The child is deliberately started without the context: a cooperative stop
// lets an in-flight conversion finish rather than leaving a truncated
// destination behind. ctx is accepted for call-shape consistency and future
// use by the diagnostics log.
func (r *Runner) Run(ctx context.Context, args []string) (int, error) {
	if r.binary == "" {
		return -1, fmt.Errorf("ffmpeg binary not resolved")
	}

	r.logger.Info("launching ffmpeg", logging.String("command", r.binary+" "+strings.Join(args, " ")))

	cmd := command(r.binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		r.logger.Info(line, logging.String(logging.FieldEventType, "tool_output"))
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("reading ffmpeg diagnostics failed", logging.Error(err))
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("wait for ffmpeg: %w", err)
	}
	return 0, nil
}
