//go:build !linux && !darwin

package session

import (
	"os"
	"os/exec"

	"golang.org/x/term"

	"github.com/arukana/neko/internal/plugin/state"
)

func startPTY(*exec.Cmd, state.Winsize) (PTY, error) {
	return nil, ErrUnsupported
}

func windowSize(f *os.File) (state.Winsize, bool) {
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return state.Winsize{}, false
	}
	return state.Winsize{Row: uint16(rows), Col: uint16(cols)}, true
}
