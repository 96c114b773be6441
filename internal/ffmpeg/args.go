package ffmpeg

import "strconv"

// RemuxOptions controls the MKV remux argument list.
type RemuxOptions struct {
	// TranscodeAudio re-encodes audio to AAC instead of stream-copying it.
	TranscodeAudio bool
	// KeepSubtitles maps text subtitle streams, recoded to mov_text.
	KeepSubtitles bool
	// AudioBitrate is the AAC bitrate used when TranscodeAudio is set.
	AudioBitrate string
}

// TranscodeOptions controls the full transcode argument list.
type TranscodeOptions struct {
	CRF          int
	Preset       string
	Tune         string
	Lossless     bool
	AudioBitrate string
}

// LosslessPreset is used when Lossless is set and no preset is configured.
const LosslessPreset = "veryslow"

// preamble returns the flags shared by every invocation: quiet warning-level
// output, overwrite the destination, regenerate timestamps, and tolerate
// minor stream corruption.
func preamble(src string) []string {
	return []string{
		"-loglevel", "warning",
		"-hide_banner",
		"-nostats",
		"-y",
		"-fflags", "+genpts+discardcorrupt",
		"-err_detect", "ignore_err",
		"-i", src,
	}
}

// trailer returns the flags shared by every invocation after the codec
// section: non-negative timestamps and front-loaded metadata for streaming
// playback, then the destination.
func trailer(dst string) []string {
	return []string{
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		dst,
	}
}

// RemuxArgs builds the MKV-to-MP4 remux invocation: every video stream is
// copied bit-for-bit; audio is copied or re-encoded to AAC per opts.
func RemuxArgs(src, dst string, opts RemuxOptions) []string {
	args := make([]string, 0, 32)
	args = append(args, preamble(src)...)
	args = append(args,
		"-map", "0:v?",
		"-map", "0:a?",
		"-c:v", "copy",
	)
	if opts.TranscodeAudio {
		// aresample smooths timestamp discontinuities the remux would
		// otherwise carry into the re-encoded track.
		args = append(args,
			"-c:a", "aac",
			"-b:a", opts.AudioBitrate,
			"-af", "aresample=async=1:first_pts=0",
		)
	} else {
		args = append(args, "-c:a", "copy")
	}
	if opts.KeepSubtitles {
		args = append(args, "-map", "0:s?", "-c:s", "mov_text")
	}
	return append(args, trailer(dst)...)
}

// RemuxFallbackArgs builds the second remux attempt: audio forced to AAC and
// subtitles dropped, which clears the two most common remux failure causes.
func RemuxFallbackArgs(src, dst string, audioBitrate string) []string {
	return RemuxArgs(src, dst, RemuxOptions{TranscodeAudio: true, AudioBitrate: audioBitrate})
}

// TranscodeArgs builds the full re-encode invocation for containers whose
// video cannot live in MP4: first video and first audio stream only, video
// to x264 in baseline-compatible 4:2:0, audio to AAC.
func TranscodeArgs(src, dst string, opts TranscodeOptions) []string {
	args := make([]string, 0, 32)
	args = append(args, preamble(src)...)
	args = append(args,
		"-map", "0:v:0?",
		"-map", "0:a:0?",
		"-c:v", "libx264",
	)
	if opts.Lossless {
		preset := opts.Preset
		if preset == "" {
			preset = LosslessPreset
		}
		args = append(args, "-preset", preset, "-crf", "0", "-pix_fmt", "yuv420p")
	} else {
		args = append(args, "-preset", opts.Preset, "-crf", strconv.Itoa(opts.CRF), "-pix_fmt", "yuv420p")
	}
	if opts.Tune != "" {
		args = append(args, "-tune", opts.Tune)
	}
	args = append(args, "-c:a", "aac", "-b:a", opts.AudioBitrate)
	return append(args, trailer(dst)...)
}
