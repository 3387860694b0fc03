package config

import (
	"fmt"
	"os"
)

func (c *Config) Validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.ChunkSize <= 0 {
		return fmt.Errorf("invalid recording.chunk_size: %d", c.Recording.ChunkSize)
	}
	if c.Recording.FrameDepth <= 0 {
		return fmt.Errorf("invalid recording.frame_depth: %d", c.Recording.FrameDepth)
	}
	if c.Recording.Format == "" {
		return fmt.Errorf("invalid recording.format: empty")
	}
	if c.Recording.Timeout <= 0 {
		return fmt.Errorf("invalid recording.timeout: %v", c.Recording.Timeout)
	}

	if c.Transcription.Language != "" && !isValidLanguageCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", c.Transcription.Language)
	}

	switch c.Transcription.Provider {
	case "realtime":
		if c.ResolveAPIKey("realtime") == "" {
			return fmt.Errorf("realtime API key required: not found in config (providers.realtime.api_key) or environment variable (VOXPAD_API_KEY)")
		}
		if c.Providers["realtime"].BaseURL == "" {
			return fmt.Errorf("providers.realtime.base_url required for the realtime provider")
		}

	case "openai":
		if c.ResolveAPIKey("openai") == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (providers.openai.api_key) or environment variable (OPENAI_API_KEY)")
		}

	case "":
		return fmt.Errorf("invalid transcription.provider: empty")

	default:
		return fmt.Errorf("unsupported transcription.provider: %s (must be realtime or openai)", c.Transcription.Provider)
	}

	if c.Session.FlushTimeout <= 0 {
		return fmt.Errorf("invalid session.flush_timeout: %v", c.Session.FlushTimeout)
	}
	if c.Session.ProcessingTimeout <= 0 {
		return fmt.Errorf("invalid session.processing_timeout: %v", c.Session.ProcessingTimeout)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

// ResolveAPIKey returns the key for a provider, falling back to the
// provider's environment variable.
func (c *Config) ResolveAPIKey(provider string) string {
	if p, ok := c.Providers[provider]; ok && p.APIKey != "" {
		return p.APIKey
	}
	switch provider {
	case "realtime":
		return os.Getenv("VOXPAD_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

func isValidLanguageCode(code string) bool {
	validCodes := map[string]bool{
		"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
		"ru": true, "ja": true, "ko": true, "zh": true, "ar": true, "hi": true,
		"nl": true, "sv": true, "da": true, "no": true, "fi": true, "pl": true,
		"tr": true, "he": true, "th": true, "vi": true, "id": true, "ms": true,
		"uk": true, "cs": true, "hu": true, "ro": true, "bg": true, "hr": true,
		"sk": true, "sl": true, "et": true, "lv": true, "lt": true, "mt": true,
		"cy": true, "ga": true, "eu": true, "ca": true, "gl": true, "is": true,
		"mk": true, "sq": true, "az": true, "be": true, "ka": true, "hy": true,
		"kk": true, "ky": true, "tg": true, "uz": true, "mn": true, "ne": true,
		"si": true, "km": true, "lo": true, "my": true, "fa": true, "ps": true,
		"ur": true, "bn": true, "ta": true, "te": true, "ml": true, "kn": true,
		"gu": true, "pa": true, "or": true, "as": true, "mr": true, "sa": true,
		"sw": true, "yo": true, "ig": true, "ha": true, "zu": true, "xh": true,
		"af": true, "am": true, "mg": true, "so": true, "sn": true, "rw": true,
	}
	return validCodes[code]
}
