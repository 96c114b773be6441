package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"tomp4/internal/config"
	"tomp4/internal/logging"
	"tomp4/internal/progress"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// buildLogger opens the per-run log file plus, optionally, the console.
// Console output is dropped while an interactive progress bar owns stderr;
// a hub, when given, mirrors every record for later display.
func (c *commandContext) buildLogger(runID string, console bool, hub *logging.StreamHub) (*slog.Logger, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "tomp4-"+runID+".log")
	paths := []string{logPath}
	if console {
		paths = append(paths, "stderr")
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
		Stream:      hub,
	})
	if err != nil {
		return nil, "", fmt.Errorf("initialize logging: %w", err)
	}
	return logger, logPath, nil
}

// acquireLock serializes convert and cleanup runs over the shared progress
// store. The returned release func is safe to defer.
func (c *commandContext) acquireLock() (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another tomp4 run holds %s; wait for it to finish", cfg.LockPath())
	}
	return func() { _ = lock.Unlock() }, nil
}

func (c *commandContext) openStore(logger *slog.Logger) (*progress.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return progress.Open(cfg.ProgressStorePath(), logger), nil
}
