package config

import "time"

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate: 16000,
			Channels:   1,
			Format:     "s16",
			ChunkSize:  4096,
			Device:     "",
			FrameDepth: 30,
			Timeout:    5 * time.Minute,
		},
		Transcription: TranscriptionConfig{
			Provider: "realtime",
			Language: "",
			Model:    "",
		},
		Session: SessionConfig{
			FlushTimeout:      10 * time.Second,
			ProcessingTimeout: 30 * time.Second,
			Warmup:            true,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Providers: make(map[string]ProviderConfig),
	}
}
