//go:build !unix

package session

import (
	"os"
	"syscall"
)

var (
	resizeSignal os.Signal

	sessionSignals  = []os.Signal{os.Interrupt}
	terminalSignals = []os.Signal{os.Interrupt}
)

func signalNumber(sig os.Signal) int32 {
	if s, ok := sig.(syscall.Signal); ok {
		return int32(s)
	}
	return 0
}
