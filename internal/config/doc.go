// Package config loads, validates, and defaults the TOML configuration for
// tomp4. The resulting Config is an immutable snapshot passed into the
// orchestrator and cleanup pass at construction; per-run behavior flags are
// layered on top by the CLI.
package config
