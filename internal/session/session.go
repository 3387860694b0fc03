// Package session drives one recording through its lifecycle:
// idle -> recording -> processing -> idle. It owns the only goroutine that
// feeds speech events into the engine, so engine state is never mutated from
// two places at once, and it owns the safety net that clears the dictation
// range when processing ends without a final transcript.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voxpad/voxpad/internal/capture"
	"github.com/voxpad/voxpad/internal/engine"
	"github.com/voxpad/voxpad/internal/stream"
	"github.com/voxpad/voxpad/internal/textedit"
)

type Phase string

const (
	Idle       Phase = "idle"
	Recording  Phase = "recording"
	Processing Phase = "processing"
)

// ErrBusy is returned when Start is called while a recording is already
// underway; one dictation session per buffer.
var ErrBusy = errors.New("session: recording already in progress")

type Config struct {
	Options stream.Options

	// FlushTimeout bounds the wait for the provider's final transcript on
	// stop.
	FlushTimeout time.Duration

	// ProcessingTimeout is the safety net: if the final transcript never
	// arrives, processing is abandoned and the range cleared.
	ProcessingTimeout time.Duration

	// MaxRecording caps a single recording; 0 disables the cap.
	MaxRecording time.Duration

	// OnError receives session errors that are not terminal signals.
	OnError func(error)
}

func (c *Config) fillDefaults() {
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = stream.DefaultFlushTimeout
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = 30 * time.Second
	}
}

// Controller is the recording session state machine. All engine access goes
// through its mutex: speech events from the session's event loop and user
// interactions reported by the host are serialized onto the one engine.
type Controller struct {
	cfg        Config
	eng        *engine.Engine
	newSession func() stream.Session
	source     capture.Source

	mu           sync.Mutex
	phase        Phase
	sess         stream.Session
	warmed       stream.Session
	finalApplied bool
	stopCapture  context.CancelFunc
	procTimer    *time.Timer
	recTimer     *time.Timer
	wg           sync.WaitGroup
}

func New(eng *engine.Engine, newSession func() stream.Session, source capture.Source, cfg Config) *Controller {
	cfg.fillDefaults()
	return &Controller{
		cfg:        cfg,
		eng:        eng,
		newSession: newSession,
		source:     source,
		phase:      Idle,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Active reports whether a dictation range is currently anchored.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.Active()
}

// Buffer returns the surface contents, serialized with engine access.
func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.Surface().Value()
}

// Warmup pre-establishes a provider connection so the next Start skips the
// connect latency.
func (c *Controller) Warmup(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Idle || c.warmed != nil {
		c.mu.Unlock()
		return nil
	}
	sess := c.newSession()
	c.mu.Unlock()

	if err := sess.Warmup(ctx, c.cfg.Options); err != nil {
		return err
	}

	c.mu.Lock()
	c.warmed = sess
	c.mu.Unlock()
	return nil
}

// Start moves idle -> recording: recover any stale connection, connect (the
// adapter refreshes an expired token once), anchor the dictation range, and
// spawn the audio pump and the event loop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Idle {
		c.mu.Unlock()
		return ErrBusy
	}

	// abnormal termination can leave a connected session behind; drop it
	// without flushing before starting fresh
	if stale := c.sess; stale != nil && stale.Status().Connected {
		log.Printf("session: dropping stale connection")
		go stale.Disconnect(context.Background(), false)
	}
	c.sess = nil

	sess := c.warmed
	c.warmed = nil
	if sess == nil {
		sess = c.newSession()
	}
	c.mu.Unlock()

	if err := sess.Connect(ctx, c.cfg.Options); err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}

	captureCtx, cancelCapture := context.WithCancel(ctx)
	frames, captureErrs, err := c.source.Start(captureCtx)
	if err != nil {
		cancelCapture()
		sess.Disconnect(context.Background(), false)
		return fmt.Errorf("session: start capture: %w", err)
	}

	c.mu.Lock()
	c.sess = sess
	c.phase = Recording
	c.finalApplied = false
	c.stopCapture = cancelCapture
	c.eng.BeginSession()
	if c.cfg.MaxRecording > 0 {
		c.recTimer = time.AfterFunc(c.cfg.MaxRecording, func() {
			if c.Phase() == Recording {
				log.Printf("session: max recording duration reached, stopping")
				c.Stop(context.Background())
			}
		})
	}
	c.mu.Unlock()

	c.wg.Add(2)
	go c.pumpAudio(sess, frames, captureErrs)
	go c.eventLoop(sess)

	log.Printf("session: recording started")
	return nil
}

// Stop moves recording -> processing: capture ends, the provider is asked to
// finalize early, and a bounded flush waits for the final transcript. The
// processing timeout arms the safety net in case nothing ever arrives.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Recording {
		c.mu.Unlock()
		return fmt.Errorf("session: not recording (phase %s)", c.phase)
	}
	c.phase = Processing
	sess := c.sess
	stopCapture := c.stopCapture
	c.stopCapture = nil
	if c.recTimer != nil {
		c.recTimer.Stop()
		c.recTimer = nil
	}
	c.procTimer = time.AfterFunc(c.cfg.ProcessingTimeout, c.abandonProcessing)
	c.mu.Unlock()

	if stopCapture != nil {
		stopCapture()
	}
	c.source.Stop()

	if err := sess.ForceSegmentEnd(); err != nil {
		log.Printf("session: force segment end: %v", err)
	}

	go c.flush(ctx, sess)
	log.Printf("session: processing")
	return nil
}

// flush disconnects with a bounded wait for the final transcript. If the
// event loop didn't already land a Final event, the disconnect result is
// applied instead; either way processing ends and the safety net clears
// whatever is left.
func (c *Controller) flush(ctx context.Context, sess stream.Session) {
	flushCtx, cancel := context.WithTimeout(ctx, c.cfg.FlushTimeout)
	defer cancel()

	text, err := sess.Disconnect(flushCtx, true)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if stream.IsNoAudio(err) {
			// terminal for the attempt: tell the user nothing was inserted
			c.reportErrorLocked(err)
		} else {
			log.Printf("session: flush: %v", err)
		}
	}
	if c.phase != Processing {
		return // cancelled or timed out meanwhile
	}
	if !c.finalApplied {
		c.finalApplied = true
		c.eng.ApplyFinal(text)
	}
	c.finishLocked()
}

// Cancel aborts from any phase: capture stops, the connection is dropped
// without flushing, and the range is cleared unconditionally. Any partial
// text already in the buffer stays as ordinary user text.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.phase == Idle {
		c.mu.Unlock()
		return
	}
	sess := c.sess
	stopCapture := c.stopCapture
	c.stopCapture = nil
	c.mu.Unlock()

	if stopCapture != nil {
		stopCapture()
	}
	c.source.Stop()
	if sess != nil {
		go sess.Disconnect(context.Background(), false)
	}

	c.mu.Lock()
	c.finishLocked()
	c.mu.Unlock()
	log.Printf("session: cancelled")
}

// abandonProcessing is the processing timeout: the final transcript never
// came, so clear the range and go idle rather than leaving it dangling into
// the next recording.
func (c *Controller) abandonProcessing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Processing {
		return
	}
	log.Printf("session: processing timed out, abandoning")
	c.finishLocked()
}

// finishLocked returns to idle and runs the safety net. Must be called with
// mu held. Idempotent.
func (c *Controller) finishLocked() {
	if c.procTimer != nil {
		c.procTimer.Stop()
		c.procTimer = nil
	}
	if c.recTimer != nil {
		c.recTimer.Stop()
		c.recTimer = nil
	}
	c.eng.EndSession()
	c.phase = Idle
}

func (c *Controller) pumpAudio(sess stream.Session, frames <-chan capture.Frame, errs <-chan error) {
	defer c.wg.Done()
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := sess.SendAudio(frame.Data); err != nil {
				log.Printf("session: send audio: %v", err)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				c.reportError(fmt.Errorf("capture: %w", err))
			}
		}
	}
}

// eventLoop is the single consumer of the provider's ordered event stream.
func (c *Controller) eventLoop(sess stream.Session) {
	defer c.wg.Done()
	for ev := range sess.Events() {
		c.handleEvent(ev)
	}
}

func (c *Controller) handleEvent(ev stream.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case stream.Partial:
		c.eng.ApplyPartial(ev.Text)

	case stream.Commit:
		c.eng.ApplyCommit(ev.Text)

	case stream.Final:
		if c.finalApplied {
			return
		}
		if c.phase == Idle {
			// late final after cancel or timeout; the session is over
			log.Printf("session: dropping final transcript after session end")
			return
		}
		c.finalApplied = true
		c.eng.ApplyFinal(ev.Text)
		if c.phase == Processing {
			c.finishLocked()
		}

	case stream.Error:
		if stream.IsNoAudio(ev.Err) {
			// terminal for the attempt: tell the user nothing was inserted
			// instead of going silently idle
			c.reportErrorLocked(ev.Err)
			if c.phase == Processing {
				c.finishLocked()
			}
			return
		}
		c.reportErrorLocked(ev.Err)

	case stream.SessionEnd:
		if c.phase == Processing && !c.finalApplied {
			log.Printf("session: ended without final transcript")
			c.finishLocked()
		}
	}
}

func (c *Controller) reportError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reportErrorLocked(err)
}

func (c *Controller) reportErrorLocked(err error) {
	log.Printf("session: %v", err)
	if c.cfg.OnError != nil {
		go c.cfg.OnError(err)
	}
}

// UserEdit forwards an edit the user applied to the surface; see
// engine.UserEdit for the descriptor contract.
func (c *Controller) UserEdit(editStart, editEnd, insertedLen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.UserEdit(editStart, editEnd, insertedLen)
}

// UserSelect forwards a user-driven caret/selection change.
func (c *Controller) UserSelect(sel textedit.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.UserSelect(sel)
}

// Painted forwards the host's paint notification so queued selection
// restores can land or be discarded.
func (c *Controller) Painted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.Painted()
}

// Wait blocks until the audio pump and event loop have exited. Intended for
// tests and daemon shutdown.
func (c *Controller) Wait() {
	c.wg.Wait()
}
