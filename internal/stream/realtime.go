package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Endpoint locates the provider's realtime websocket.
type Endpoint struct {
	BaseURL string // e.g. wss://api.example.com
	Path    string // e.g. /v1/dictation/stream
}

// RealtimeSession implements Session over a websocket streaming protocol.
// The provider sends JSON control/result messages; audio goes up as raw
// binary frames.
type RealtimeSession struct {
	endpoint Endpoint
	tokens   *TokenCache
	source   TokenSource

	// wmu serializes writes to conn: gorilla allows at most one concurrent
	// writer, and Disconnect can race the audio pump draining its backlog.
	wmu sync.Mutex

	mu        sync.Mutex
	conn      *websocket.Conn
	started   bool
	warmed    bool
	sessionID string
	opts      Options

	// committed accumulates provider-finalized segments; the final
	// transcript message, when present, overrides it.
	committed strings.Builder
	finalText string
	gotFinal  bool

	eventsCh  chan Event
	finalDone chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Outgoing control messages.
type realtimeControl struct {
	Type string `json:"type"`
}

// Incoming provider messages.
type realtimeMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

func NewRealtimeSession(endpoint Endpoint, tokens *TokenCache, source TokenSource) *RealtimeSession {
	return &RealtimeSession{
		endpoint:  endpoint,
		tokens:    tokens,
		source:    source,
		eventsCh:  make(chan Event, 100),
		finalDone: make(chan struct{}, 1),
	}
}

func (s *RealtimeSession) Warm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warmed && s.conn != nil
}

// Warmup pre-establishes the websocket so a later Connect skips the dial.
func (s *RealtimeSession) Warmup(ctx context.Context, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("session already started")
	}
	if s.warmed && s.conn != nil {
		return nil
	}
	if err := s.dialLocked(ctx, opts); err != nil {
		return err
	}
	s.warmed = true
	s.opts = opts
	log.Printf("stream: connection warmed")
	return nil
}

// Connect activates the session: dials unless warmed, then starts the read
// loop. A stale token is refreshed and the dial retried exactly once.
func (s *RealtimeSession) Connect(ctx context.Context, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("session already started")
	}

	if s.conn == nil {
		if err := s.dialLocked(ctx, opts); err != nil {
			return err
		}
	}
	s.started = true
	s.warmed = false
	s.opts = opts

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.readLoop()

	log.Printf("stream: connected, model=%s language=%s", opts.Model, opts.Language)
	return nil
}

// dialLocked opens the websocket, refreshing the token and retrying once on
// an auth-expired rejection. Must be called with mu held.
func (s *RealtimeSession) dialLocked(ctx context.Context, opts Options) error {
	token, err := s.tokens.Fetch(ctx, s.source)
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}

	err = s.dialWithToken(ctx, opts, token)
	if !IsAuthExpired(err) {
		return err
	}

	// cached token went stale before its recorded expiry: refresh and retry
	// once, never loop
	log.Printf("stream: cached token rejected, refreshing")
	s.tokens.Invalidate()
	token, err = s.tokens.Fetch(ctx, s.source)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	return s.dialWithToken(ctx, opts, token)
}

func (s *RealtimeSession) dialWithToken(ctx context.Context, opts Options, token string) error {
	wsURL, err := s.buildURL(opts)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("websocket dial: %w", ErrAuthExpired)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *RealtimeSession) buildURL(opts Options) (string, error) {
	u, err := url.Parse(s.endpoint.BaseURL + s.endpoint.Path)
	if err != nil {
		return "", fmt.Errorf("parse endpoint url: %w", err)
	}

	q := u.Query()
	if opts.Model != "" {
		q.Set("model", opts.Model)
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	rate := opts.SampleRate
	if rate == 0 {
		rate = 16000
	}
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(rate))
	q.Set("interim_results", "true")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *RealtimeSession) readLoop() {
	defer s.wg.Done()
	defer close(s.eventsCh)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.ctx.Done():
				// normal shutdown
			default:
				log.Printf("stream: read error: %v", err)
				s.emit(Event{Kind: Error, Err: fmt.Errorf("websocket read: %w", err)})
				s.emit(Event{Kind: SessionEnd})
			}
			return
		}

		var msg realtimeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("stream: parse error: %v", err)
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *RealtimeSession) handleMessage(msg realtimeMessage) {
	switch msg.Type {
	case "session_started":
		s.mu.Lock()
		s.sessionID = msg.SessionID
		s.mu.Unlock()
		log.Printf("stream: session started, id=%s", msg.SessionID)

	case "partial_transcript":
		if msg.Text != "" {
			s.emit(Event{Kind: Partial, Text: msg.Text})
		}

	case "committed_transcript":
		if msg.Text == "" {
			return
		}
		log.Printf("stream: committed: %q", msg.Text)
		s.mu.Lock()
		s.committed.WriteString(msg.Text)
		s.mu.Unlock()
		s.emit(Event{Kind: Commit, Text: msg.Text})

	case "final_transcript":
		// cumulative total for the whole session
		log.Printf("stream: final transcript received")
		s.mu.Lock()
		s.finalText = msg.Text
		s.gotFinal = true
		s.mu.Unlock()
		s.emit(Event{Kind: Final, Text: msg.Text})
		select {
		case s.finalDone <- struct{}{}:
		default:
		}

	case "session_ended":
		log.Printf("stream: session ended by provider")
		s.emit(Event{Kind: SessionEnd})

	case "error":
		err := s.providerError(msg)
		log.Printf("stream: provider error: %v", err)
		s.emit(Event{Kind: Error, Err: err})

	default:
		log.Printf("stream: unknown message type: %s", msg.Type)
	}
}

func (s *RealtimeSession) providerError(msg realtimeMessage) error {
	text := msg.Error
	if text == "" {
		text = msg.Code
	}
	var err error
	switch msg.Code {
	case "auth_expired", "token_expired":
		err = fmt.Errorf("%s: %w", text, ErrAuthExpired)
	case "no_audio", "insufficient_audio_activity":
		err = fmt.Errorf("%s: %w", text, ErrNoAudio)
	default:
		err = fmt.Errorf("provider: %s", text)
	}
	s.mu.Lock()
	id := s.sessionID
	s.mu.Unlock()
	return &SessionError{SessionID: id, Err: err}
}

func (s *RealtimeSession) emit(ev Event) {
	select {
	case s.eventsCh <- ev:
	case <-s.ctx.Done():
	}
}

// SendAudio submits one PCM chunk as a binary frame.
func (s *RealtimeSession) SendAudio(chunk []byte) error {
	s.mu.Lock()
	conn := s.conn
	started := s.started
	s.mu.Unlock()

	if !started {
		return fmt.Errorf("session not started")
	}
	if conn == nil {
		return fmt.Errorf("no connection")
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// ForceSegmentEnd asks the provider to finalize the current utterance now.
func (s *RealtimeSession) ForceSegmentEnd() error {
	s.mu.Lock()
	conn := s.conn
	started := s.started
	s.mu.Unlock()

	if !started || conn == nil {
		return nil
	}

	s.wmu.Lock()
	err := conn.WriteJSON(realtimeControl{Type: "commit"})
	s.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	log.Printf("stream: forced segment end")
	return nil
}

// Disconnect tears the session down. With flush it first sends the close
// message and waits (bounded by ctx) for the final transcript; the returned
// text is the cumulative final, falling back to the concatenated commits if
// the provider never sent one.
func (s *RealtimeSession) Disconnect(ctx context.Context, flush bool) (string, error) {
	s.mu.Lock()
	conn := s.conn
	started := s.started
	s.mu.Unlock()

	if conn == nil {
		return s.result(), nil
	}

	var flushErr error
	if flush && started {
		s.wmu.Lock()
		err := conn.WriteJSON(realtimeControl{Type: "close"})
		s.wmu.Unlock()
		if err != nil {
			flushErr = fmt.Errorf("close write: %w", err)
		} else {
			select {
			case <-s.finalDone:
				log.Printf("stream: flush complete")
			case <-ctx.Done():
				log.Printf("stream: flush timeout")
				flushErr = ctx.Err()
			}
		}
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.conn = nil
	s.started = false
	s.warmed = false
	s.mu.Unlock()

	s.wmu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.wmu.Unlock()
	conn.Close()
	if started {
		s.wg.Wait()
	}

	log.Printf("stream: disconnected (flush=%v)", flush)
	return s.result(), flushErr
}

func (s *RealtimeSession) result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gotFinal {
		return s.finalText
	}
	return s.committed.String()
}

func (s *RealtimeSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Connected: s.conn != nil, SessionID: s.sessionID}
}

func (s *RealtimeSession) Events() <-chan Event {
	return s.eventsCh
}

// ensure interface compliance at compile time
var _ Session = (*RealtimeSession)(nil)

// DefaultFlushTimeout bounds how long Disconnect(flush=true) waits for the
// provider's final transcript.
const DefaultFlushTimeout = 10 * time.Second
