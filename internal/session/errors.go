package session

import "errors"

var (
	// ErrUnsupported indicates the platform has no PTY support.
	ErrUnsupported = errors.New("session: pseudo-terminals are not supported on this platform")

	// ErrRunning indicates Run was called on a running session.
	ErrRunning = errors.New("session: already running")
)
