// Package daemon runs the voxpad background process: it owns the dictation
// engine, the recording session controller, and the control socket the CLI
// talks to.
package daemon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/voxpad/voxpad/internal/bus"
	"github.com/voxpad/voxpad/internal/capture"
	"github.com/voxpad/voxpad/internal/config"
	"github.com/voxpad/voxpad/internal/engine"
	"github.com/voxpad/voxpad/internal/notify"
	"github.com/voxpad/voxpad/internal/session"
	"github.com/voxpad/voxpad/internal/stream"
)

type Daemon struct {
	mu       sync.Mutex
	manager  *config.Manager
	notifier notify.Notifier
	ctrl     *session.Controller
	tokens   *stream.TokenCache

	ctx    context.Context
	cancel context.CancelFunc
}

func New(manager *config.Manager) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		manager: manager,
		tokens:  stream.NewTokenCache(),
		ctx:     ctx,
		cancel:  cancel,
	}

	cfg := manager.GetConfig()
	d.notifier = notify.ForType(cfg.Notifications.Type, cfg.Notifications.Enabled)
	d.ctrl = d.buildController(cfg)

	// config edits take effect on the next recording; a controller mid-
	// session keeps its settings until it returns to idle
	manager.OnChange(func(newCfg *config.Config) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.ctrl.Phase() != session.Idle {
			log.Printf("daemon: config changed mid-session, applying when idle")
			return
		}
		d.notifier = notify.ForType(newCfg.Notifications.Type, newCfg.Notifications.Enabled)
		d.ctrl = d.buildController(newCfg)
	})

	return d
}

func (d *Daemon) buildController(cfg *config.Config) *session.Controller {
	surface := engine.NewMemorySurface("")
	eng := engine.New(surface)
	source := capture.New(cfg.ToCaptureConfig())

	return session.New(eng, d.newSession, source, session.Config{
		Options:           cfg.ToStreamOptions(),
		FlushTimeout:      cfg.Session.FlushTimeout,
		ProcessingTimeout: cfg.Session.ProcessingTimeout,
		MaxRecording:      cfg.Recording.Timeout,
		OnError: func(err error) {
			d.currentNotifier().Error(err.Error())
		},
	})
}

// newSession reads the live config so provider, model, and credentials
// follow hot reloads without a daemon restart.
func (d *Daemon) newSession() stream.Session {
	cfg := d.manager.GetConfig()

	switch cfg.Transcription.Provider {
	case "openai":
		model := cfg.Transcription.Model
		if model == "" {
			model = "whisper-1"
		}
		return stream.NewBatchSession(cfg.ResolveAPIKey("openai"), model, cfg.Transcription.Language)

	default:
		p := cfg.Providers["realtime"]
		key := cfg.ResolveAPIKey("realtime")
		var source stream.TokenSource
		if p.TokenURL != "" {
			source = stream.HTTPTokenSource(nil, p.TokenURL, key)
		} else {
			source = stream.StaticTokenSource(key)
		}
		return stream.NewRealtimeSession(cfg.RealtimeEndpoint(), d.tokens, source)
	}
}

func (d *Daemon) currentNotifier() notify.Notifier {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifier
}

func (d *Daemon) controller() *session.Controller {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config watch unavailable: %v", err)
	}
	defer d.manager.Stop()

	if d.manager.GetConfig().Session.Warmup {
		go func() {
			if err := d.controller().Warmup(d.ctx); err != nil {
				log.Printf("daemon: warmup failed: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down", sig)
		d.cancel()
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: started, listening on control socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.controller().Cancel()
				log.Printf("daemon: shutdown requested")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("daemon: client read error: %v", err)
		fmt.Fprint(c, bus.Errf("read_error: %v", err))
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, bus.Errf("empty"))
		return
	}
	d.handleCommand(line[0], c)
}

func (d *Daemon) handleCommand(cmd byte, w io.Writer) {
	switch cmd {
	case bus.CmdToggle:
		d.toggle()
		fmt.Fprint(w, bus.OK("phase=%s", d.controller().Phase()))
	case bus.CmdCancel:
		d.controller().Cancel()
		d.currentNotifier().PhaseChanged(string(session.Idle))
		fmt.Fprint(w, bus.OK("cancelled"))
	case bus.CmdStatus:
		fmt.Fprint(w, bus.Status("status=%s", d.controller().Phase()))
	case bus.CmdBuffer:
		// quoted so multi-line dictation stays a one-line reply
		fmt.Fprint(w, bus.OK("buffer=%q", d.controller().Buffer()))
	case bus.CmdProto:
		fmt.Fprint(w, bus.Status("proto=%s", bus.ProtoVer))
	case bus.CmdQuit:
		fmt.Fprint(w, bus.OK("quitting"))
		d.cancel()
	default:
		log.Printf("daemon: unknown command: %c", cmd)
		fmt.Fprint(w, bus.Errf("unknown=%q", cmd))
	}
}

// toggle advances the session: idle starts a recording, recording stops
// into processing, processing cancels the wait.
func (d *Daemon) toggle() {
	ctrl := d.controller()

	switch ctrl.Phase() {
	case session.Idle:
		if err := ctrl.Start(d.ctx); err != nil {
			log.Printf("daemon: start failed: %v", err)
			d.currentNotifier().Error(fmt.Sprintf("recording failed: %v", err))
			return
		}
		d.currentNotifier().PhaseChanged(string(session.Recording))

	case session.Recording:
		if err := ctrl.Stop(d.ctx); err != nil {
			log.Printf("daemon: stop failed: %v", err)
			return
		}
		d.currentNotifier().PhaseChanged(string(session.Processing))

	case session.Processing:
		ctrl.Cancel()
		d.currentNotifier().PhaseChanged(string(session.Idle))
	}
}
