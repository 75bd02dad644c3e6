package progress

import (
	"io"
	"time"
)

// Style represents the type of progress visualization
type Style string

const (
	// StyleBar shows a bar of settled files against emitted files
	StyleBar Style = "bar"

	// StyleSpinner shows a spinning indicator
	StyleSpinner Style = "spinner"

	// StyleSimple shows basic text progress
	StyleSimple Style = "simple"
)

// Config holds the configuration for progress visualization
type Config struct {
	// Style defines how progress should be displayed
	Style Style

	// Width is the maximum width for the progress bar (0 = auto-detect)
	Width int

	// ShowStats enables/disables additional statistics
	ShowStats bool

	// NoColor disables colored output
	NoColor bool

	// RefreshRate defines how often the display updates
	RefreshRate time.Duration

	// HideAfterComplete removes progress bar after completion
	HideAfterComplete bool

	// Writer receives the display (default os.Stderr)
	Writer io.Writer
}

// Status is a snapshot of a running traversal
type Status struct {
	// Emitted is the number of files handed to the consumer
	Emitted int64

	// Settled is the number of files the consumer acknowledged
	Settled int64

	// Skipped counts duplicates and filtered paths
	Skipped int64

	// BytesRead by the consumer
	BytesRead int64

	// CurrentItem is the most recently emitted path
	CurrentItem string

	// Sealed is set once every walk has finished, so Emitted is final
	Sealed bool
}

// Statistics provides derived progress information
type Statistics struct {
	StartTime       time.Time
	ElapsedTime     time.Duration
	RemainingTime   time.Duration
	ProcessingSpeed float64 // settled files per second

	ProgressPercentage float64
	BytesProcessed     int64
	ItemsProcessed     int64
}

// Progress defines the interface for progress visualization
type Progress interface {
	// Start begins progress visualization with initial message
	Start(message string)

	// Update replaces the displayed status
	Update(status Status)

	// Complete marks the operation as successfully completed
	Complete(message string)

	// Error marks the operation as failed
	Error(message string)

	// Stop stops progress visualization
	Stop()

	// SetStyle changes the progress style during operation
	SetStyle(style Style)

	// EnableStats enables/disables statistics display
	EnableStats(enable bool)

	// IsSupportedTerminal checks if terminal supports advanced features
	IsSupportedTerminal() bool
}
