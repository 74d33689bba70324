// Package session hosts an interactive shell on a pseudo-terminal and feeds
// everything that happens in it to the plugin registry.
//
// Readers only move bytes into channels. Every registry call, mount request
// and PTY write happens on the goroutine running Run, so plugins never see
// two events at once.
package session

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/arukana/neko/internal/plugin"
	"github.com/arukana/neko/internal/plugin/state"
	"github.com/arukana/neko/internal/plugin/watch"
)

// Default window size when the input is not a terminal.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Options configures a session.
type Options struct {
	// Shell is the program started on the PTY (defaults to $SHELL or /bin/sh).
	Shell string

	// Args are passed to the shell.
	Args []string

	// Idle is the idle tick period and the key interval threshold.
	Idle time.Duration

	// Repeat is the key repeat window.
	Repeat time.Duration

	// Stdin and Stdout default to the process's standard streams. When
	// Stdin is a terminal it is put in raw mode for the session.
	Stdin  io.Reader
	Stdout io.Writer

	// Requests, when set, delivers artifact changes to apply between events.
	Requests <-chan watch.Request

	// Signals, when set, replaces the process signal subscription.
	Signals <-chan os.Signal

	// Start starts the shell (defaults to StartShell).
	Start Starter

	Logger *logrus.Logger
}

// Session is one interactive shell session.
type Session struct {
	id       string
	registry *plugin.Registry
	opts     Options
	logger   *logrus.Entry
	decoder  *Decoder

	running    atomic.Bool
	foreground int
}

// New returns a session dispatching to reg.
func New(reg *plugin.Registry, opts Options) *Session {
	if opts.Shell == "" {
		opts.Shell = os.Getenv("SHELL")
		if opts.Shell == "" {
			opts.Shell = "/bin/sh"
		}
	}
	if opts.Idle <= 0 {
		opts.Idle = time.Second
	}
	if opts.Repeat <= 0 {
		opts.Repeat = 300 * time.Millisecond
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Start == nil {
		opts.Start = StartShell
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	id := uuid.New().String()
	return &Session{
		id:       id,
		registry: reg,
		opts:     opts,
		logger:   opts.Logger.WithField("session", id),
		decoder:  NewDecoder(opts.Repeat, opts.Idle),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run starts the shell and dispatches events until the shell exits, a
// terminating signal arrives or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	size := s.windowSize()

	if f, ok := s.opts.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		old, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return err
		}
		defer term.Restore(int(f.Fd()), old)
	}

	shell, err := s.opts.Start(s.opts.Shell, s.opts.Args, size)
	if err != nil {
		return err
	}
	defer shell.Close()

	log := s.logger.WithField("shell", s.opts.Shell)
	log.Info("session started")

	signals := s.opts.Signals
	if signals == nil {
		ch := make(chan os.Signal, 8)
		signal.Notify(ch, sessionSignals...)
		defer signal.Stop(ch)
		signals = ch
	}

	input := make(chan []byte)
	output := make(chan []byte)
	exited := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go pump(s.opts.Stdin, input, stop)
	go pump(shell, output, stop)
	go func() { exited <- shell.Wait() }()

	ticker := time.NewTicker(s.opts.Idle)
	defer ticker.Stop()

	s.registry.Call(plugin.ResizedEvent(size))

	for {
		select {
		case <-ctx.Done():
			log.Info("session cancelled")
			return nil

		case buf, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			s.handleInput(shell, buf)

		case buf, ok := <-output:
			if !ok {
				output = nil
				continue
			}
			s.registry.Call(plugin.OutputEvent(buf))
			if _, err := s.opts.Stdout.Write(buf); err != nil {
				return err
			}
			s.checkForeground(shell)

		case sig := <-signals:
			if s.handleSignal(shell, sig) {
				log.WithField("signal", sig.String()).Info("session terminated")
				return nil
			}

		case req, ok := <-s.opts.Requests:
			if !ok {
				s.opts.Requests = nil
				continue
			}
			s.apply(req)

		case <-ticker.C:
			s.registry.Call(plugin.Idle())
			s.checkForeground(shell)

		case err := <-exited:
			s.drain(output)
			var exitErr interface{ ExitCode() int }
			if errors.As(err, &exitErr) {
				log.WithField("code", exitErr.ExitCode()).Info("shell exited")
				return nil
			}
			if err != nil {
				return err
			}
			log.Info("shell exited")
			return nil
		}
	}
}

// handleInput dispatches a chunk of user input and forwards it to the shell
// unless a plugin holds the lock.
func (s *Session) handleInput(shell Shell, buf []byte) {
	s.registry.Call(s.decoder.Decode(buf, time.Now()))
	if s.registry.State().IsLocked() {
		return
	}
	if _, err := shell.Write(buf); err != nil {
		s.logger.WithError(err).Warn("write to shell failed")
	}
}

// handleSignal dispatches sig and reports whether it ends the session.
func (s *Session) handleSignal(shell Shell, sig os.Signal) bool {
	if resizeSignal != nil && sig == resizeSignal {
		size := s.windowSize()
		if err := shell.Resize(size); err != nil {
			s.logger.WithError(err).Warn("resize failed")
		}
		s.registry.Call(plugin.ResizedEvent(size))
		return false
	}

	s.registry.Call(plugin.SignalEvent(signalNumber(sig)))
	return slices.Contains(terminalSignals, sig)
}

// checkForeground dispatches a process event when the foreground process
// group of the terminal changes.
func (s *Session) checkForeground(shell Shell) {
	pid, err := shell.Foreground()
	if err != nil || pid <= 0 || pid == s.foreground {
		return
	}
	s.foreground = pid

	name, err := processName(pid)
	if err != nil {
		s.logger.WithError(err).WithField("pid", pid).Debug("process name unavailable")
	}
	s.registry.Call(plugin.ProcessEvent(name, pid))
}

// apply mounts or unmounts a plugin whose artifact changed.
func (s *Session) apply(req watch.Request) {
	log := s.logger.WithFields(logrus.Fields{"plugin": req.Name, "op": req.Op.String()})

	var err error
	switch req.Op {
	case watch.OpRemount:
		err = s.registry.Mount(req.Name)
	case watch.OpUnmount:
		err = s.registry.Release(req.Name, false)
		if errors.Is(err, plugin.ErrNotFound) {
			err = nil
		}
	}
	if err != nil {
		log.WithError(err).Warn("artifact change not applied")
	}
}

// drain forwards output already read when the shell exits.
func (s *Session) drain(output <-chan []byte) {
	if output == nil {
		return
	}
	timeout := time.After(50 * time.Millisecond)
	for {
		select {
		case buf, ok := <-output:
			if !ok {
				return
			}
			s.registry.Call(plugin.OutputEvent(buf))
			_, _ = s.opts.Stdout.Write(buf)
		case <-timeout:
			return
		}
	}
}

func (s *Session) windowSize() state.Winsize {
	if f, ok := s.opts.Stdin.(*os.File); ok {
		if ws, ok := windowSize(f); ok && ws.Col > 0 && ws.Row > 0 {
			return ws
		}
	}
	return state.Winsize{Row: DefaultRows, Col: DefaultCols}
}

// pump copies chunks from r to ch until r fails or stop is closed.
func pump(r io.Reader, ch chan<- []byte, stop <-chan struct{}) {
	defer close(ch)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case ch <- chunk:
			case <-stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
