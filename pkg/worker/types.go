package worker

import "time"

// Status is the lifecycle state of a pool.
type Status string

const (
	// StatusIdle means started with nothing queued or running.
	StatusIdle Status = "idle"

	// StatusProcessing means tasks are queued or running.
	StatusProcessing Status = "processing"

	// StatusShuttingDown means the queue is closed and tasks are draining.
	StatusShuttingDown Status = "shutting_down"

	// StatusStopped means not started, stopped, or fully drained.
	StatusStopped Status = "stopped"
)

// Stats is a point-in-time view of the pool.
type Stats struct {
	ActiveWorkers  int
	QueuedTasks    int
	CompletedTasks int
	FailedTasks    int
	Status         Status
	Uptime         time.Duration
}
