// Package deps resolves the external media tools tomp4 shells out to.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Test hooks.
var (
	lookPath       = exec.LookPath
	executablePath = os.Executable
)

// Tools holds the resolved external tool paths. FFmpeg is required for any
// conversion run; FFprobe is optional and only degrades stream inspection
// when absent.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Locate resolves ffmpeg and ffprobe. Search order for each tool: a binary
// sitting next to the tomp4 executable, then an explicit configured override,
// then PATH. Empty fields mean the tool was not found anywhere.
func Locate(ffmpegOverride, ffprobeOverride string) Tools {
	return Tools{
		FFmpeg:  resolveTool("ffmpeg", ffmpegOverride),
		FFprobe: resolveTool("ffprobe", ffprobeOverride),
	}
}

func resolveTool(name, override string) string {
	if adjacent := adjacentBinary(name); adjacent != "" {
		return adjacent
	}
	if override = strings.TrimSpace(override); override != "" {
		if info, err := os.Stat(override); err == nil && isExecutable(info) {
			return override
		}
	}
	if path, err := lookPath(name); err == nil {
		return path
	}
	return ""
}

func adjacentBinary(name string) string {
	self, err := executablePath()
	if err != nil {
		return ""
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(filepath.Dir(self), name)
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return ""
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// Status reports the availability of one external tool.
type Status struct {
	Name      string
	Path      string
	Optional  bool
	Available bool
	Detail    string
}

// Check summarizes tool availability for status output.
func Check(tools Tools) []Status {
	statuses := make([]Status, 0, 2)

	ffmpeg := Status{Name: "ffmpeg", Path: tools.FFmpeg}
	if tools.FFmpeg == "" {
		ffmpeg.Detail = fmt.Sprintf("binary %q not found", "ffmpeg")
	} else {
		ffmpeg.Available = true
	}
	statuses = append(statuses, ffmpeg)

	ffprobe := Status{Name: "ffprobe", Path: tools.FFprobe, Optional: true}
	if tools.FFprobe == "" {
		ffprobe.Detail = "not found; stream inspection falls back to ffmpeg diagnostics"
	} else {
		ffprobe.Available = true
	}
	statuses = append(statuses, ffprobe)

	return statuses
}
