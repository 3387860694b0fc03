package config

import "time"

type Config struct {
	Recording     RecordingConfig           `toml:"recording"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Session       SessionConfig             `toml:"session"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

// ProviderConfig holds per-provider credentials and endpoints.
type ProviderConfig struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`  // realtime websocket base, e.g. wss://host
	TokenURL string `toml:"token_url"` // optional ephemeral-token endpoint
}

type RecordingConfig struct {
	SampleRate int           `toml:"sample_rate"`
	Channels   int           `toml:"channels"`
	Format     string        `toml:"format"`
	ChunkSize  int           `toml:"chunk_size"`
	Device     string        `toml:"device"`
	FrameDepth int           `toml:"frame_depth"`
	Timeout    time.Duration `toml:"timeout"` // maximum recording duration
}

type TranscriptionConfig struct {
	Provider string `toml:"provider"` // "realtime" or "openai"
	Language string `toml:"language"` // empty = auto-detect
	Model    string `toml:"model"`
}

// SessionConfig tunes the recording session lifecycle.
type SessionConfig struct {
	FlushTimeout      time.Duration `toml:"flush_timeout"`
	ProcessingTimeout time.Duration `toml:"processing_timeout"`
	Warmup            bool          `toml:"warmup"` // pre-dial the provider on startup
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
