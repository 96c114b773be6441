// Package testsupport provides shared fixtures for package tests: configs
// rooted in temp directories, sized files, and stub external binaries.
package testsupport

import (
	"path/filepath"
	"testing"

	"tomp4/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithKeepSubtitles enables subtitle mapping on the test config.
func WithKeepSubtitles() ConfigOption {
	return func(c *config.Config) {
		c.Conversion.KeepSubtitles = true
	}
}

// WithAudioBitrate overrides the AAC bitrate on the test config.
func WithAudioBitrate(rate string) ConfigOption {
	return func(c *config.Config) {
		c.Conversion.AudioBitrate = rate
	}
}
