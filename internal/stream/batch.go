package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// BatchSession implements Session for providers without a streaming API
// (Whisper-style transcription). Audio is buffered for the whole recording
// and transcribed in one request when the session is flushed, so the engine
// sees no partials or commits - just the one-shot final transcript.
type BatchSession struct {
	client   *openai.Client
	model    string
	language string

	mu        sync.Mutex
	started   bool
	audio     []byte
	closeOnce sync.Once

	eventsCh chan Event
}

func NewBatchSession(apiKey, model, language string) *BatchSession {
	return &BatchSession{
		client:   openai.NewClient(apiKey),
		model:    model,
		language: language,
		eventsCh: make(chan Event, 4),
	}
}

// Warm always reports false: there is no connection to keep warm.
func (s *BatchSession) Warm() bool { return false }

func (s *BatchSession) Warmup(ctx context.Context, opts Options) error { return nil }

func (s *BatchSession) Connect(ctx context.Context, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("session already started")
	}
	if opts.Model != "" {
		s.model = opts.Model
	}
	if opts.Language != "" {
		s.language = opts.Language
	}
	s.started = true
	s.audio = s.audio[:0]
	log.Printf("stream: batch session started, model=%s", s.model)
	return nil
}

func (s *BatchSession) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("session not started")
	}
	s.audio = append(s.audio, chunk...)
	return nil
}

// ForceSegmentEnd is a no-op: batch providers have no mid-session segments.
func (s *BatchSession) ForceSegmentEnd() error { return nil }

// Disconnect transcribes the buffered audio in one request when flushing
// and emits the result as the session's single Final event.
func (s *BatchSession) Disconnect(ctx context.Context, flush bool) (string, error) {
	s.mu.Lock()
	audio := s.audio
	s.audio = nil
	wasStarted := s.started
	s.started = false
	s.mu.Unlock()

	defer s.closeOnce.Do(func() { close(s.eventsCh) })

	if !flush || !wasStarted {
		return "", nil
	}
	if len(audio) == 0 {
		s.eventsCh <- Event{Kind: Error, Err: ErrNoAudio}
		return "", ErrNoAudio
	}

	req := openai.AudioRequest{
		Model:    s.model,
		Reader:   bytes.NewReader(pcmToWAV(audio, 16000, 1)),
		FilePath: "audio.wav",
		Language: s.language,
	}
	resp, err := s.client.CreateTranscription(ctx, req)
	if err != nil {
		s.eventsCh <- Event{Kind: Error, Err: fmt.Errorf("transcription: %w", err)}
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		s.eventsCh <- Event{Kind: Error, Err: ErrNoAudio}
		return "", ErrNoAudio
	}

	log.Printf("stream: batch transcription complete, %d bytes of text", len(text))
	s.eventsCh <- Event{Kind: Final, Text: text}
	s.eventsCh <- Event{Kind: SessionEnd}
	return text, nil
}

func (s *BatchSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Connected: s.started}
}

func (s *BatchSession) Events() <-chan Event { return s.eventsCh }

var _ Session = (*BatchSession)(nil)

// pcmToWAV wraps raw 16-bit little-endian PCM in a minimal WAV container.
func pcmToWAV(raw []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(raw)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(raw)))
	buf.Write(raw)
	return buf.Bytes()
}
