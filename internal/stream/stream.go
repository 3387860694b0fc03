// Package stream abstracts the speech-recognition provider behind a session
// contract: lifecycle methods plus an ordered event stream of partial
// transcripts, committed segments, the cumulative final transcript, and
// error/session-end signals. Nothing above this package ever sees a wire
// protocol.
package stream

import "context"

// EventKind discriminates the session event stream.
type EventKind int

const (
	// Partial is a low-confidence guess of the current utterance; partials
	// supersede each other until a commit.
	Partial EventKind = iota
	// Commit is a provider-finalized segment. Once committed it must never
	// be overwritten by a later partial.
	Commit
	// Final carries the cumulative finalized text for the whole session.
	Final
	// Error carries a session error; the session may still be alive.
	Error
	// SessionEnd signals that the provider closed the session.
	SessionEnd
)

func (k EventKind) String() string {
	switch k {
	case Partial:
		return "partial"
	case Commit:
		return "commit"
	case Final:
		return "final"
	case Error:
		return "error"
	case SessionEnd:
		return "session-end"
	default:
		return "unknown"
	}
}

// Event is one provider signal. Events are delivered in the order the
// provider sent them; consumers must not reorder them.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Options configures a session at connect time.
type Options struct {
	Model      string
	Language   string
	SampleRate int
}

// Status is a snapshot of the connection state.
type Status struct {
	Connected bool
	SessionID string
}

// Session is one speech-recognition connection. Implementations are
// single-use: after Disconnect a fresh Session must be created.
type Session interface {
	// Warm reports whether a pre-established connection is ready, so
	// recording can start without connect latency.
	Warm() bool

	// Warmup pre-establishes the connection without starting capture.
	Warmup(ctx context.Context, opts Options) error

	// Connect establishes (or activates a warmed) connection and starts the
	// event stream.
	Connect(ctx context.Context, opts Options) error

	// SendAudio submits one chunk of PCM audio.
	SendAudio(chunk []byte) error

	// ForceSegmentEnd asks the provider to finalize the current utterance
	// early instead of waiting for silence detection.
	ForceSegmentEnd() error

	// Disconnect tears the session down. With flush set it first asks the
	// provider to finalize all pending audio and returns the cumulative
	// final transcript; without it the connection is dropped as-is (the
	// stale-connection recovery path).
	Disconnect(ctx context.Context, flush bool) (string, error)

	Status() Status

	// Events returns the ordered event stream. The channel is closed when
	// the session ends.
	Events() <-chan Event
}
