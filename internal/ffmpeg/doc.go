// Package ffmpeg builds argument lists for the external ffmpeg tool and runs
// it with live diagnostic streaming. Builders are pure: they never touch the
// filesystem or execute anything.
package ffmpeg
