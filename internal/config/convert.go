package config

import (
	"github.com/voxpad/voxpad/internal/capture"
	"github.com/voxpad/voxpad/internal/stream"
)

func (c *Config) ToCaptureConfig() capture.Config {
	return capture.Config{
		SampleRate: c.Recording.SampleRate,
		Channels:   c.Recording.Channels,
		Format:     c.Recording.Format,
		ChunkSize:  c.Recording.ChunkSize,
		Device:     c.Recording.Device,
		FrameDepth: c.Recording.FrameDepth,
	}
}

func (c *Config) ToStreamOptions() stream.Options {
	return stream.Options{
		Model:      c.Transcription.Model,
		Language:   c.Transcription.Language,
		SampleRate: c.Recording.SampleRate,
	}
}

func (c *Config) RealtimeEndpoint() stream.Endpoint {
	p := c.Providers["realtime"]
	return stream.Endpoint{BaseURL: p.BaseURL}
}
