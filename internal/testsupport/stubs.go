package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StubScript writes an executable shell script under dir and returns its
// path. Tests point tool paths at these scripts instead of real binaries.
func StubScript(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

// RecordingFFmpegStub builds an ffmpeg stand-in that appends each
// invocation's arguments as one line to logPath and creates a non-empty
// file at its final argument, mimicking a successful encode.
func RecordingFFmpegStub(t testing.TB, dir, logPath string) string {
	t.Helper()
	body := `echo "$@" >> ` + shellQuote(logPath) + `
for dst; do :; done
printf 'converted' > "$dst"
exit 0
`
	return StubScript(t, dir, "ffmpeg", body)
}

// FailingFFmpegStub builds an ffmpeg stand-in that records the invocation
// and exits with the given status without producing a destination.
func FailingFFmpegStub(t testing.TB, dir, logPath string, exitCode string) string {
	t.Helper()
	body := `echo "$@" >> ` + shellQuote(logPath) + `
exit ` + exitCode + `
`
	return StubScript(t, dir, "ffmpeg", body)
}

// FFprobeStub builds an ffprobe stand-in that prints the given JSON payload
// regardless of arguments.
func FFprobeStub(t testing.TB, dir, payload string) string {
	t.Helper()
	body := `cat <<'EOF'
` + payload + `
EOF
exit 0
`
	return StubScript(t, dir, "ffprobe", body)
}

// Invocations returns the recorded stub invocations, one argument line per
// element. A missing log file means zero invocations.
func Invocations(t testing.TB, logPath string) []string {
	t.Helper()

	data, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read invocation log: %v", err)
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
