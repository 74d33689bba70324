package session

import (
	"io"
	"os"
	"os/exec"

	"github.com/arukana/neko/internal/plugin/state"
)

// PTY is the master side of a pseudo-terminal.
type PTY interface {
	io.ReadWriteCloser

	// Resize changes the window size seen by the slave side.
	Resize(ws state.Winsize) error

	// Foreground returns the foreground process group of the terminal.
	Foreground() (int, error)
}

// Shell is a process attached to a PTY.
type Shell interface {
	PTY

	// Wait blocks until the process exits.
	Wait() error
}

// Starter starts a shell command on a new PTY of the given size.
type Starter func(name string, args []string, ws state.Winsize) (Shell, error)

// StartPTY starts cmd with a new PTY as its controlling terminal.
func StartPTY(cmd *exec.Cmd, ws state.Winsize) (PTY, error) {
	return startPTY(cmd, ws)
}

// StartShell is the default Starter. The command inherits the environment
// with TERM set.
func StartShell(name string, args []string, ws state.Winsize) (Shell, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	pty, err := StartPTY(cmd, ws)
	if err != nil {
		return nil, err
	}
	return &ptyShell{PTY: pty, cmd: cmd}, nil
}

type ptyShell struct {
	PTY
	cmd *exec.Cmd
}

func (s *ptyShell) Wait() error {
	return s.cmd.Wait()
}
