package testutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxpad/voxpad/internal/capture"
	"github.com/voxpad/voxpad/internal/config"
	"github.com/voxpad/voxpad/internal/stream"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	return &config.Config{
		Recording: config.RecordingConfig{
			SampleRate: 16000,
			Channels:   1,
			Format:     "s16",
			ChunkSize:  4096,
			Device:     "",
			FrameDepth: 30,
			Timeout:    5 * time.Minute,
		},
		Transcription: config.TranscriptionConfig{
			Provider: "realtime",
			Language: "",
			Model:    "",
		},
		Session: config.SessionConfig{
			FlushTimeout:      10 * time.Second,
			ProcessingTimeout: 30 * time.Second,
			Warmup:            false,
		},
		Notifications: config.NotificationsConfig{
			Enabled: true,
			Type:    "log",
		},
		Providers: map[string]config.ProviderConfig{
			"realtime": {APIKey: "test-api-key", BaseURL: "wss://stt.example.com"},
			"openai":   {APIKey: "test-openai-key"},
		},
	}
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return configPath
}

// MockFrame creates a test audio frame
func MockFrame(data []byte) capture.Frame {
	if data == nil {
		data = make([]byte, 1024)
		for i := range data {
			data[i] = byte(i % 256)
		}
	}
	return capture.Frame{Data: data, Timestamp: time.Now()}
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// CaptureOutput captures stdout for testing
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	out, _ := io.ReadAll(r)
	return string(out)
}

// MockSource implements capture.Source for testing
type MockSource struct {
	Frames   []capture.Frame
	StartErr error

	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
}

func NewMockSource() *MockSource {
	return &MockSource{Frames: []capture.Frame{MockFrame(nil)}}
}

func (m *MockSource) Start(ctx context.Context) (<-chan capture.Frame, <-chan error, error) {
	if m.StartErr != nil {
		return nil, nil, m.StartErr
	}

	m.mu.Lock()
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()
	m.running.Store(true)

	frameCh := make(chan capture.Frame, len(m.Frames)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		for _, frame := range m.Frames {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case frameCh <- frame:
			}
		}

		// keep channels open until stopped
		select {
		case <-ctx.Done():
		case <-stopCh:
		}
	}()

	return frameCh, errCh, nil
}

func (m *MockSource) Stop() {
	if !m.running.Load() {
		return
	}
	m.running.Store(false)

	m.mu.Lock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
	m.mu.Unlock()
}

func (m *MockSource) Running() bool {
	return m.running.Load()
}

// MockSession implements stream.Session for testing. Tests drive the event
// stream through Emit; Disconnect with flush emits the scripted final
// transcript the way a real provider would.
type MockSession struct {
	ConnectErr      error
	WarmupErr       error
	DisconnectErr   error
	DisconnectDelay time.Duration
	FinalText       string

	mu           sync.Mutex
	warm         bool
	connected    bool
	connectCalls int
	sentAudio    [][]byte
	forceCalls   int
	flushes      []bool
	events       chan stream.Event
	closed       bool
}

func NewMockSession() *MockSession {
	return &MockSession{events: make(chan stream.Event, 64)}
}

func (m *MockSession) Warm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warm
}

func (m *MockSession) Warmup(ctx context.Context, opts stream.Options) error {
	if m.WarmupErr != nil {
		return m.WarmupErr
	}
	m.mu.Lock()
	m.warm = true
	m.mu.Unlock()
	return nil
}

func (m *MockSession) Connect(ctx context.Context, opts stream.Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.warm = false
	m.connected = true
	return nil
}

func (m *MockSession) SendAudio(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.sentAudio = append(m.sentAudio, buf)
	return nil
}

func (m *MockSession) ForceSegmentEnd() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceCalls++
	return nil
}

func (m *MockSession) Disconnect(ctx context.Context, flush bool) (string, error) {
	if m.DisconnectDelay > 0 {
		select {
		case <-time.After(m.DisconnectDelay):
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	m.flushes = append(m.flushes, flush)
	m.connected = false
	final := m.FinalText
	err := m.DisconnectErr
	m.mu.Unlock()

	if flush && err == nil {
		m.Emit(stream.Event{Kind: stream.Final, Text: final})
	}
	m.Emit(stream.Event{Kind: stream.SessionEnd})
	m.closeEvents()

	if err != nil {
		return "", err
	}
	if !flush {
		return "", nil
	}
	return final, nil
}

func (m *MockSession) Status() stream.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stream.Status{Connected: m.connected}
}

func (m *MockSession) Events() <-chan stream.Event {
	return m.events
}

// Emit pushes an event into the stream; no-op once the stream is closed.
func (m *MockSession) Emit(ev stream.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events <- ev
}

func (m *MockSession) closeEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
}

func (m *MockSession) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

func (m *MockSession) ForceSegmentEndCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forceCalls
}

func (m *MockSession) SentAudio() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sentAudio))
	copy(out, m.sentAudio)
	return out
}

func (m *MockSession) Flushes() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.flushes))
	copy(out, m.flushes)
	return out
}
