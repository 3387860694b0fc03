package stream

import "errors"

// ErrAuthExpired marks a connection rejected because the cached token went
// stale. The session adapter refreshes the token and retries exactly once;
// if it comes back again the error propagates to the caller.
var ErrAuthExpired = errors.New("stream: auth token expired")

// ErrNoAudio marks a session that ended without detecting any speech. It is
// terminal for the attempt; there is nothing to insert.
var ErrNoAudio = errors.New("stream: no audio detected")

// SessionError wraps a provider-reported error with the session it came
// from.
type SessionError struct {
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return e.Err.Error()
	}
	return "session " + e.SessionID + ": " + e.Err.Error()
}

func (e *SessionError) Unwrap() error { return e.Err }

// IsAuthExpired reports whether err is (or wraps) a stale-token rejection.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsNoAudio reports whether err is (or wraps) the no-audio signal.
func IsNoAudio(err error) bool {
	return errors.Is(err, ErrNoAudio)
}
