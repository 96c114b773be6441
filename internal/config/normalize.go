package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.StateDir == "" {
		c.Paths.StateDir, _ = expandPath(defaultStateDir)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LogDir == "" {
		c.Paths.LogDir, _ = expandPath(defaultLogDir)
	}

	if c.Tools.FFmpeg, err = expandPath(c.Tools.FFmpeg); err != nil {
		return fmt.Errorf("tools.ffmpeg: %w", err)
	}
	if c.Tools.FFprobe, err = expandPath(c.Tools.FFprobe); err != nil {
		return fmt.Errorf("tools.ffprobe: %w", err)
	}

	c.Conversion.Preset = strings.TrimSpace(c.Conversion.Preset)
	c.Conversion.Tune = strings.TrimSpace(c.Conversion.Tune)
	c.Conversion.AudioBitrate = strings.TrimSpace(c.Conversion.AudioBitrate)
	if c.Conversion.AudioBitrate == "" {
		c.Conversion.AudioBitrate = defaultAudioBitrate
	}

	c.Inputs.Extensions = normalizeExtensions(c.Inputs.Extensions, defaultExtensions())
	c.Inputs.MP4CompatibleAudio = normalizeCodecs(c.Inputs.MP4CompatibleAudio, defaultMP4CompatibleAudio())

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func normalizeExtensions(values []string, fallback []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func normalizeCodecs(values []string, fallback []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
