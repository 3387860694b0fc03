package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	voxpadDir := filepath.Join(configDir, "voxpad")
	if err := os.MkdirAll(voxpadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(voxpadDir, "config.toml"), nil
}

// Load reads the config file, writing defaults first if none exists.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("config: no config file at %s, creating with defaults", configPath)
		if err := SaveDefaultConfig(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return LoadFile(configPath)
}

func LoadFile(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}
	config.applyDefaults()

	return &config, nil
}

// applyDefaults fills zero values so a sparse config file still works.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Recording.SampleRate == 0 {
		c.Recording.SampleRate = d.Recording.SampleRate
	}
	if c.Recording.Channels == 0 {
		c.Recording.Channels = d.Recording.Channels
	}
	if c.Recording.Format == "" {
		c.Recording.Format = d.Recording.Format
	}
	if c.Recording.ChunkSize == 0 {
		c.Recording.ChunkSize = d.Recording.ChunkSize
	}
	if c.Recording.FrameDepth == 0 {
		c.Recording.FrameDepth = d.Recording.FrameDepth
	}
	if c.Recording.Timeout == 0 {
		c.Recording.Timeout = d.Recording.Timeout
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = d.Transcription.Provider
	}
	if c.Session.FlushTimeout == 0 {
		c.Session.FlushTimeout = d.Session.FlushTimeout
	}
	if c.Session.ProcessingTimeout == 0 {
		c.Session.ProcessingTimeout = d.Session.ProcessingTimeout
	}
	if c.Notifications.Type == "" {
		c.Notifications.Type = "log"
	}
}

// Save writes the configuration back to the config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func SaveDefaultConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	configContent := `# Voxpad Configuration
# This file is automatically generated with defaults.
# Edit values as needed - changes are applied immediately without daemon restart.

# Audio Recording Configuration
[recording]
  sample_rate = 16000          # Audio sample rate in Hz (16000 recommended for speech)
  channels = 1                 # Number of audio channels (1 = mono, 2 = stereo)
  format = "s16"               # Audio format (s16 = 16-bit signed integers)
  chunk_size = 4096            # Capture read size in bytes
  device = ""                  # PipeWire audio device (empty = default microphone)
  frame_depth = 30             # Audio frame buffer depth (frames)
  timeout = "5m"               # Maximum recording duration (e.g. "30s", "2m", "5m")

# Speech Transcription Configuration
[transcription]
  provider = "realtime"        # "realtime" (streaming) or "openai" (whisper batch)
  language = ""                # Language code (empty for auto-detect, "en", "it", ...)
  model = ""                   # Model name (empty = provider default)

# Session Lifecycle Configuration
[session]
  flush_timeout = "10s"        # Wait for the final transcript on stop
  processing_timeout = "30s"   # Abandon processing if nothing arrives
  warmup = true                # Pre-dial the streaming provider on startup

# Desktop Notification Configuration
[notifications]
  enabled = true               # Enable notifications
  type = "desktop"             # Notification type ("desktop", "log", "none")

# Provider Credentials
[providers.realtime]
  api_key = ""                 # Streaming provider API key (or VOXPAD_API_KEY env var)
  base_url = ""                # Websocket base, e.g. "wss://api.example.com"
  token_url = ""               # Optional ephemeral-token endpoint (empty = api_key used directly)

[providers.openai]
  api_key = ""                 # OpenAI API key (or OPENAI_API_KEY env var)
`

	if _, err := file.WriteString(configContent); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}

	return nil
}
