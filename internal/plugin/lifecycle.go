package plugin

// Lifecycle is the state of a plugin handle.
type Lifecycle int

// Handle lifecycle states.
const (
	// LifecycleUnloaded - the shared object is not open.
	LifecycleUnloaded Lifecycle = iota

	// LifecycleStarted - install and start ran; the handle receives events.
	LifecycleStarted

	// LifecycleEnded - end ran; the handle is about to be released.
	LifecycleEnded
)

// String returns a string representation of the lifecycle state.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleUnloaded:
		return "unloaded"
	case LifecycleStarted:
		return "started"
	case LifecycleEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the handle still receives events.
func (l Lifecycle) IsUsable() bool {
	return l == LifecycleStarted
}
