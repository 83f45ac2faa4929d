package threadpool

// State is the lifecycle position of a ThreadPool.
type State int32

const (
	// StateRunning accepts tasks.
	StateRunning State = iota
	// StateShuttingDown rejects tasks while workers finish queued work and exit.
	StateShuttingDown
	// StateStopped means every worker has been joined.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
