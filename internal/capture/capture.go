// Package capture reads raw PCM from the default microphone via PipeWire's
// pw-record and hands it out as timestamped frames. Frames feed the
// streaming session; when the session can't keep up, frames are dropped
// rather than blocking capture.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one chunk of captured PCM audio.
type Frame struct {
	Data      []byte
	Timestamp time.Time
}

type Config struct {
	SampleRate int
	Channels   int
	Format     string
	ChunkSize  int
	Device     string
	FrameDepth int // channel buffer, in frames
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Channels:   1,
		Format:     "s16",
		ChunkSize:  4096,
		FrameDepth: 30,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("capture: invalid sample rate %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("capture: invalid channel count %d", c.Channels)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("capture: invalid chunk size %d", c.ChunkSize)
	}
	if c.FrameDepth <= 0 {
		return fmt.Errorf("capture: invalid frame depth %d", c.FrameDepth)
	}
	if c.Format == "" {
		return fmt.Errorf("capture: empty format")
	}
	return nil
}

// Source captures microphone audio. One capture runs at a time.
type Source interface {
	Start(ctx context.Context) (<-chan Frame, <-chan error, error)
	Stop()
	Running() bool
}

type pwSource struct {
	config  Config
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(config Config) Source {
	return &pwSource{config: config}
}

func NewDefault() Source { return New(DefaultConfig()) }

func (s *pwSource) Running() bool { return s.running.Load() }

func (s *pwSource) Start(ctx context.Context) (<-chan Frame, <-chan error, error) {
	if s.running.Load() {
		return nil, nil, fmt.Errorf("capture: already running")
	}
	if err := s.config.validate(); err != nil {
		return nil, nil, err
	}
	if err := Available(ctx); err != nil {
		return nil, nil, err
	}

	captureCtx, cancel := context.WithCancel(ctx)
	frameCh := make(chan Frame, s.config.FrameDepth)
	errCh := make(chan error, 1)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.running.Store(true)
	s.wg.Add(1)
	go s.loop(captureCtx, frameCh, errCh)

	return frameCh, errCh, nil
}

func (s *pwSource) Stop() {
	if !s.running.Load() {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *pwSource) loop(ctx context.Context, frameCh chan<- Frame, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)
		s.running.Store(false)
		s.wg.Done()
	}()

	args := []string{
		"--format", s.config.Format,
		"--rate", strconv.Itoa(s.config.SampleRate),
		"--channels", strconv.Itoa(s.config.Channels),
	}
	if s.config.Device != "" {
		args = append(args, "--target", s.config.Device)
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, "pw-record", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.fail(errCh, fmt.Errorf("capture: stdout pipe: %w", err))
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.fail(errCh, fmt.Errorf("capture: stderr pipe: %w", err))
		return
	}
	if err := cmd.Start(); err != nil {
		s.fail(errCh, fmt.Errorf("capture: start pw-record: %w", err))
		return
	}
	defer cmd.Wait()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("capture: pw-record: %s", scanner.Text())
		}
	}()

	buf := make([]byte, s.config.ChunkSize)
	dropped := 0
	lastDropLog := time.Now()

	for {
		n, readErr := stdout.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])

			select {
			case frameCh <- Frame{Data: data, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			default:
				dropped++
				if time.Since(lastDropLog) > time.Second {
					log.Printf("capture: dropped %d frames under backpressure", dropped)
					lastDropLog = time.Now()
					dropped = 0
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				return
			}
			s.fail(errCh, fmt.Errorf("capture: read audio: %w", readErr))
			return
		}
	}
}

func (s *pwSource) fail(errCh chan<- error, err error) {
	log.Printf("%v", err)
	select {
	case errCh <- err:
	default:
	}
}

// Available checks that PipeWire capture tooling is present and responsive.
func Available(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("capture: pw-record not found: %w", err)
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := exec.CommandContext(checkCtx, "pw-cli", "info").Run(); err != nil {
		return fmt.Errorf("capture: PipeWire not reachable: %w", err)
	}
	return nil
}
