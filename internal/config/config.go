package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// StateDir holds progress.json, failed.txt, and the run lock.
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Tools contains optional explicit paths to the external media tools. Empty
// values fall back to the locator's search order.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Conversion contains quality parameters for the transcode path and the
// audio policy shared by both paths.
type Conversion struct {
	CRF           int    `toml:"crf"`
	Preset        string `toml:"preset"`
	Tune          string `toml:"tune"`
	Lossless      bool   `toml:"lossless"`
	AudioBitrate  string `toml:"audio_bitrate"`
	KeepSubtitles bool   `toml:"keep_subtitles"`
}

// Inputs contains the recognized source extensions and the audio codecs that
// may be stream-copied into an MP4 container.
type Inputs struct {
	Extensions         []string `toml:"extensions"`
	MP4CompatibleAudio []string `toml:"mp4_compatible_audio"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tomp4.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Conversion Conversion `toml:"conversion"`
	Inputs     Inputs     `toml:"inputs"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tomp4/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. It reports the resolved
// path and whether a file existed there; a missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ProgressStorePath returns the canonical progress store location.
func (c *Config) ProgressStorePath() string {
	return filepath.Join(c.Paths.StateDir, "progress.json")
}

// FailedListPath returns the append-only failed-items file location.
func (c *Config) FailedListPath() string {
	return filepath.Join(c.Paths.StateDir, "failed.txt")
}

// LockPath returns the lock file that serializes convert and cleanup runs
// against the shared progress store.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "tomp4.lock")
}

// RecognizedExtension reports whether ext (with leading dot, any case) is a
// recognized input extension.
func (c *Config) RecognizedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, known := range c.Inputs.Extensions {
		if ext == known {
			return true
		}
	}
	return false
}

// AudioCompatible reports whether the codec may be stream-copied into MP4.
func (c *Config) AudioCompatible(codec string) bool {
	codec = strings.ToLower(strings.TrimSpace(codec))
	for _, known := range c.Inputs.MP4CompatibleAudio {
		if codec == known {
			return true
		}
	}
	return false
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
