package session

// refreshState is the explicit coalescing state of a session's definition
// refresh. At most one refresh is in flight and at most one is queued; a
// request arriving mid-flight is absorbed into a single trailing re-run.
type refreshState int

const (
	refreshIdle refreshState = iota
	refreshRunning
	refreshRunningPending
)

func (s refreshState) String() string {
	switch s {
	case refreshIdle:
		return "idle"
	case refreshRunning:
		return "running"
	case refreshRunningPending:
		return "running+pending"
	default:
		return "invalid"
	}
}

// request transitions on a new refresh request. The boolean reports whether
// the caller should start a fetch; a false return means the request was
// absorbed into the pending flag.
func (s refreshState) request() (refreshState, bool) {
	if s == refreshIdle {
		return refreshRunning, true
	}
	return refreshRunningPending, false
}

// finish transitions when an in-flight fetch completes. The boolean reports
// whether a trailing re-run must be issued.
func (s refreshState) finish() (refreshState, bool) {
	if s == refreshRunningPending {
		return refreshRunning, true
	}
	return refreshIdle, false
}
