package traverser

import "time"

// Options configures a Traverser.
type Options struct {
	// Inputs are the files and directories to traverse. Required.
	Inputs []string

	// ScopeTo, when set, restricts emitted paths to those whose canonical
	// form matches it at the start.
	ScopeTo string

	// Excludes are paths never emitted, nor anything beneath them.
	Excludes []string
}

// FileHandler receives each admitted file. It is never called
// concurrently with another FileHandler of the same Traverser and should
// return promptly: the walk that found the file waits for it. The handler
// must eventually settle ack, possibly from another goroutine.
type FileHandler func(path string, ack *Ack)

// DoneHandler is called once after a successful traversal.
type DoneHandler func()

// State is the lifecycle position of a Traverser.
type State int32

const (
	// StateIdle accepts handler registration.
	StateIdle State = iota
	// StateTraversing has directory walks outstanding.
	StateTraversing
	// StateSealed has finished walking and waits on acknowledgements.
	StateSealed
	// StateDone completed and fired the done handlers.
	StateDone
	// StateFailed stopped on a walk error, a rejection or cancellation.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTraversing:
		return "traversing"
	case StateSealed:
		return "sealed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats describes a traversal run.
type Stats struct {
	RunID      string
	State      State
	FileRoots  int
	DirRoots   int
	Emitted    int64
	Duplicates int64
	Filtered   int64
	Rejected   int64
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
