package daemon

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/voxpad/voxpad/internal/bus"
	"github.com/voxpad/voxpad/internal/config"
	"github.com/voxpad/voxpad/internal/engine"
	"github.com/voxpad/voxpad/internal/notify"
	"github.com/voxpad/voxpad/internal/session"
	"github.com/voxpad/voxpad/internal/stream"
	"github.com/voxpad/voxpad/internal/testutil"
)

func newTestDaemon(t *testing.T) (*Daemon, *testutil.MockSession) {
	t.Helper()

	mock := testutil.NewMockSession()
	mock.FinalText = "hello"

	eng := engine.New(engine.NewMemorySurface(""))
	ctrl := session.New(eng, func() stream.Session { return mock }, testutil.NewMockSource(), session.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &Daemon{
		notifier: notify.Nop{},
		ctrl:     ctrl,
		tokens:   stream.NewTokenCache(),
		ctx:      ctx,
		cancel:   cancel,
	}, mock
}

func TestHandleCommand_Responses(t *testing.T) {
	d, _ := newTestDaemon(t)

	tests := []struct {
		cmd  byte
		want string
	}{
		{bus.CmdStatus, "STATUS status=idle\n"},
		{bus.CmdProto, "STATUS proto=" + bus.ProtoVer + "\n"},
		{'x', "ERR unknown='x'\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		d.handleCommand(tt.cmd, &buf)
		if buf.String() != tt.want {
			t.Errorf("handleCommand(%c) = %q, want %q", tt.cmd, buf.String(), tt.want)
		}
	}
}

func TestToggleCycle(t *testing.T) {
	d, _ := newTestDaemon(t)

	var buf bytes.Buffer
	d.handleCommand(bus.CmdToggle, &buf)
	if got := buf.String(); got != "OK phase=recording\n" {
		t.Fatalf("first toggle = %q, want recording", got)
	}
	if d.controller().Phase() != session.Recording {
		t.Fatalf("phase = %s, want recording", d.controller().Phase())
	}

	// second toggle stops; the mock finishes the flush immediately
	buf.Reset()
	d.handleCommand(bus.CmdToggle, &buf)
	if !strings.HasPrefix(buf.String(), "OK phase=") {
		t.Fatalf("second toggle = %q, want OK", buf.String())
	}

	testutil.WaitForCondition(t, func() bool {
		return d.controller().Phase() == session.Idle
	}, time.Second)

	if got := d.controller().Buffer(); got != "hello" {
		t.Errorf("buffer = %q, want final transcript", got)
	}
}

func TestBufferCommand(t *testing.T) {
	d, mock := newTestDaemon(t)

	var buf bytes.Buffer
	d.handleCommand(bus.CmdBuffer, &buf)
	if got := buf.String(); got != `OK buffer=""`+"\n" {
		t.Fatalf("empty buffer = %q", got)
	}

	buf.Reset()
	d.handleCommand(bus.CmdToggle, &buf)
	mock.Emit(stream.Event{Kind: stream.Commit, Text: "hello"})
	testutil.WaitForCondition(t, func() bool {
		return d.controller().Buffer() == "hello"
	}, time.Second)

	// dictated text is readable back over the control socket protocol
	buf.Reset()
	d.handleCommand(bus.CmdBuffer, &buf)
	if got := buf.String(); got != `OK buffer="hello"`+"\n" {
		t.Errorf("buffer reply = %q, want quoted dictation", got)
	}
}

func TestCancelCommand(t *testing.T) {
	d, _ := newTestDaemon(t)

	var buf bytes.Buffer
	d.handleCommand(bus.CmdToggle, &buf)
	if d.controller().Phase() != session.Recording {
		t.Fatalf("phase = %s, want recording", d.controller().Phase())
	}

	buf.Reset()
	d.handleCommand(bus.CmdCancel, &buf)
	if got := buf.String(); got != "OK cancelled\n" {
		t.Errorf("cancel = %q, want OK cancelled", got)
	}
	if d.controller().Phase() != session.Idle {
		t.Errorf("phase = %s after cancel, want idle", d.controller().Phase())
	}
}

func TestQuitCommand(t *testing.T) {
	d, _ := newTestDaemon(t)

	var buf bytes.Buffer
	d.handleCommand(bus.CmdQuit, &buf)
	if got := buf.String(); got != "OK quitting\n" {
		t.Errorf("quit = %q, want OK quitting", got)
	}
	if d.ctx.Err() == nil {
		t.Error("context not cancelled after quit")
	}
}

func TestRunServesControlSocket(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	manager, err := config.NewManager()
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	d := New(manager)
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	// wait for the socket to come up
	testutil.WaitForCondition(t, func() bool {
		_, err := bus.SendCommand(bus.CmdStatus)
		return err == nil
	}, 2*time.Second)

	if resp, err := bus.SendCommand(bus.CmdStatus); err != nil || resp != "STATUS status=idle\n" {
		t.Errorf("status = (%q, %v), want idle", resp, err)
	}
	if resp, err := bus.SendCommand(bus.CmdProto); err != nil || !strings.HasPrefix(resp, "STATUS proto=") {
		t.Errorf("proto = (%q, %v)", resp, err)
	}

	if _, err := bus.SendCommand(bus.CmdQuit); err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil on clean shutdown", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("daemon did not exit within timeout")
	}
}
