//go:build unix

package session

import (
	"os"
	"syscall"
)

var (
	resizeSignal os.Signal = syscall.SIGWINCH

	// sessionSignals are forwarded to plugins.
	sessionSignals = []os.Signal{syscall.SIGWINCH, syscall.SIGCHLD, syscall.SIGHUP, syscall.SIGTERM}

	// terminalSignals end the session after dispatch.
	terminalSignals = []os.Signal{syscall.SIGHUP, syscall.SIGTERM}
)

func signalNumber(sig os.Signal) int32 {
	if s, ok := sig.(syscall.Signal); ok {
		return int32(s)
	}
	return 0
}
