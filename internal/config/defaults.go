package config

const (
	defaultStateDir     = "~/.local/share/tomp4"
	defaultLogDir       = "~/.local/share/tomp4/logs"
	defaultCRF          = 18
	defaultPreset       = "slow"
	defaultAudioBitrate = "192k"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// LosslessPreset is the encoder preset used when lossless output is requested
// and no preset is configured.
const LosslessPreset = "veryslow"

func defaultExtensions() []string {
	return []string{".mkv", ".webm", ".ogv"}
}

func defaultMP4CompatibleAudio() []string {
	return []string{"aac", "mp3"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Conversion: Conversion{
			CRF:          defaultCRF,
			Preset:       defaultPreset,
			AudioBitrate: defaultAudioBitrate,
		},
		Inputs: Inputs{
			Extensions:         defaultExtensions(),
			MP4CompatibleAudio: defaultMP4CompatibleAudio(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
