// Package probe determines which streams a source file contains. It prefers
// structured ffprobe JSON output and degrades to parsing ffmpeg's stream
// diagnostics when ffprobe is unavailable. An empty result always means "no
// information", never "no audio".
package probe
