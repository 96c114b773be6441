package config

import (
	"fmt"
	"regexp"
)

var knownPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {},
	"fast": {}, "medium": {}, "slow": {}, "slower": {}, "veryslow": {},
}

var knownTunes = map[string]struct{}{
	"film": {}, "animation": {}, "grain": {},
}

var bitratePattern = regexp.MustCompile(`^[0-9]+[kKmM]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Conversion.CRF < 0 || c.Conversion.CRF > 51 {
		return fmt.Errorf("conversion.crf must be between 0 and 51, got %d", c.Conversion.CRF)
	}
	if c.Conversion.Preset != "" {
		if _, ok := knownPresets[c.Conversion.Preset]; !ok {
			return fmt.Errorf("conversion.preset: unknown preset %q", c.Conversion.Preset)
		}
	}
	if c.Conversion.Tune != "" {
		if _, ok := knownTunes[c.Conversion.Tune]; !ok {
			return fmt.Errorf("conversion.tune: unknown tune %q", c.Conversion.Tune)
		}
	}
	if !bitratePattern.MatchString(c.Conversion.AudioBitrate) {
		return fmt.Errorf("conversion.audio_bitrate: invalid value %q", c.Conversion.AudioBitrate)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
