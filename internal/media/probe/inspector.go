package probe

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"tomp4/internal/logging"
)

var audioCodecPattern = regexp.MustCompile(`(?i)Audio:\s*([A-Za-z0-9_]+)`)

// Inspector answers codec questions about source files using whichever
// external tool is available.
type Inspector struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewInspector builds an inspector around the resolved tool paths. An empty
// ffprobe path forces the ffmpeg diagnostics fallback; an empty ffmpeg path
// on top of that makes every inspection return no information.
func NewInspector(ffmpeg, ffprobe string, logger *slog.Logger) *Inspector {
	return &Inspector{
		ffmpeg:  strings.TrimSpace(ffmpeg),
		ffprobe: strings.TrimSpace(ffprobe),
		logger:  logging.NewComponentLogger(logger, "probe"),
	}
}

// AudioCodecs returns the lowercase codec names of all audio streams in
// order of appearance. Failures of either strategy degrade to an empty
// slice; callers must treat that as "no information", not "no audio".
func (i *Inspector) AudioCodecs(ctx context.Context, path string) []string {
	if i.ffprobe != "" {
		result, err := Inspect(ctx, i.ffprobe, path)
		if err == nil {
			var codecs []string
			for _, stream := range result.AudioStreams() {
				codecs = append(codecs, strings.ToLower(strings.TrimSpace(stream.CodecName)))
			}
			return codecs
		}
		i.logger.Debug("ffprobe inspection failed; falling back to ffmpeg diagnostics",
			logging.String(logging.FieldSource, path),
			logging.Error(err))
	}
	return i.audioCodecsFromDiagnostics(ctx, path)
}

// audioCodecsFromDiagnostics runs ffmpeg in inspection-only mode (no output
// file, so the invocation always exits non-zero) and scans its stream
// diagnostics for "Audio: <codec>" lines.
func (i *Inspector) audioCodecsFromDiagnostics(ctx context.Context, path string) []string {
	if i.ffmpeg == "" {
		return nil
	}

	cmd := commandContext(ctx, i.ffmpeg, "-hide_banner", "-i", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// The exit status is expected to be non-zero; only the diagnostics matter.
	_ = cmd.Run()

	return ScanAudioCodecs(stderr.String())
}

// ScanAudioCodecs extracts audio codec names from ffmpeg stream diagnostics,
// in order of appearance. Best effort: lines that do not match the expected
// pattern are ignored.
func ScanAudioCodecs(diagnostics string) []string {
	var codecs []string
	for _, line := range strings.Split(diagnostics, "\n") {
		if m := audioCodecPattern.FindStringSubmatch(line); m != nil {
			codecs = append(codecs, strings.ToLower(m[1]))
		}
	}
	return codecs
}

// NeedsAudioTranscode reports whether any detected audio stream carries a
// codec the compatible predicate rejects. An empty codec list yields false:
// with nothing detected there is nothing to transcode.
func NeedsAudioTranscode(codecs []string, compatible func(string) bool) bool {
	for _, codec := range codecs {
		if !compatible(codec) {
			return true
		}
	}
	return false
}
