/*
Package progress draws a single-line view of a running traversal: how many
files were handed to the consumer and how many of those it has already
acknowledged.

Basic usage:

	p := progress.New(progress.Config{Style: progress.StyleBar}, log)
	p.Start("Hashing files")
	defer p.Stop()

	p.Update(progress.Status{Emitted: 10, Settled: 4})
	p.Complete("Complete")
*/
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sonemaro/traverser/pkg/logger"
	"golang.org/x/term"
)

type progress struct {
	config Config
	log    logger.Logger
	writer io.Writer

	// State
	status    Status
	startTime time.Time
	message   string
	isActive  bool
	hasError  bool

	// Rendering
	renderer    renderer
	refreshRate time.Duration
	width       int

	// Synchronization
	mu       sync.Mutex
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a new progress visualization instance
func New(config Config, log logger.Logger) Progress {
	if log == nil {
		log = logger.NewNop()
	}
	if config.RefreshRate == 0 {
		config.RefreshRate = 100 * time.Millisecond
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	p := &progress{
		config:      config,
		log:         log,
		writer:      writer,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		refreshRate: config.RefreshRate,
	}

	// Auto-detect terminal width if not specified
	if p.config.Width == 0 {
		p.width = p.getTerminalWidth()
	} else {
		p.width = p.config.Width
	}

	p.renderer = p.createRenderer()

	p.log.WithFields(logger.Fields{
		"style":     p.config.Style,
		"width":     p.width,
		"showStats": p.config.ShowStats,
		"noColor":   p.config.NoColor,
		"refresh":   p.config.RefreshRate,
	}).Debug("Created new progress instance")

	return p
}

func (p *progress) Start(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A display runs at most once.
	if p.isActive || !p.startTime.IsZero() {
		return
	}

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Starting progress")

	p.message = message
	p.startTime = time.Now()
	p.isActive = true
	p.hasError = false

	go p.renderLoop()
}

func (p *progress) Update(status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"emitted": status.Emitted,
		"settled": status.Settled,
		"item":    status.CurrentItem,
	}).Trace("Updating progress")

	p.status = status

	if p.isActive {
		p.render()
	}
}

func (p *progress) Complete(message string) {
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Completing progress")

	p.message = message
	p.status.Sealed = true
	if p.status.Settled < p.status.Emitted {
		p.status.Settled = p.status.Emitted
	}
	p.render()

	if p.config.HideAfterComplete {
		p.clearLine()
	}
}

func (p *progress) Error(message string) {
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Error in progress")

	p.message = message
	p.hasError = true
	p.render()
}

func (p *progress) Stop() {
	p.log.Debug("Stopping progress")
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLine()
}

// halt ends the render loop if it is running. It must not be called with
// mu held since the loop takes mu on every tick.
func (p *progress) halt() {
	p.mu.Lock()
	active := p.isActive
	p.isActive = false
	p.mu.Unlock()

	if !active {
		return
	}

	p.stopOnce.Do(func() {
		close(p.stopChan)
		<-p.doneChan
	})
}

func (p *progress) SetStyle(style Style) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"style": style,
	}).Debug("Setting progress style")

	p.config.Style = style
	p.renderer = p.createRenderer()
}

func (p *progress) EnableStats(enable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"enabled": enable,
	}).Debug("Toggling statistics display")

	p.config.ShowStats = enable
	p.renderer = p.createRenderer()
}

func (p *progress) IsSupportedTerminal() bool {
	if f, ok := p.writer.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func (p *progress) renderLoop() {
	ticker := time.NewTicker(p.refreshRate)
	defer ticker.Stop()
	defer close(p.doneChan)

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.render()
			p.mu.Unlock()
		}
	}
}

func (p *progress) render() {
	output := p.renderer.render(p.status, p.message, p.calculateStats())
	p.clearLine()
	fmt.Fprint(p.writer, output)
}

func (p *progress) clearLine() {
	if p.IsSupportedTerminal() {
		fmt.Fprint(p.writer, "\r\033[K")
	} else {
		fmt.Fprint(p.writer, "\r")
	}
}

func (p *progress) getTerminalWidth() int {
	if f, ok := p.writer.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			return w
		}
	}

	return 80
}

func (p *progress) calculateStats() Statistics {
	elapsed := time.Since(p.startTime)

	stats := Statistics{
		StartTime:      p.startTime,
		ElapsedTime:    elapsed,
		BytesProcessed: p.status.BytesRead,
		ItemsProcessed: p.status.Settled,
	}

	if p.status.Emitted > 0 {
		stats.ProgressPercentage = float64(p.status.Settled) / float64(p.status.Emitted) * 100
		if stats.ProgressPercentage > 100 {
			stats.ProgressPercentage = 100
		}
	}

	if secs := elapsed.Seconds(); secs > 0 {
		stats.ProcessingSpeed = float64(p.status.Settled) / secs
	}

	// The remaining count is only known once the walks are done.
	if p.status.Sealed && stats.ProcessingSpeed > 0 {
		remaining := p.status.Emitted - p.status.Settled
		if remaining > 0 {
			stats.RemainingTime = time.Duration(float64(remaining) / stats.ProcessingSpeed * float64(time.Second))
		}
	}

	return stats
}

func (p *progress) createRenderer() renderer {
	switch p.config.Style {
	case StyleBar:
		return &barRenderer{
			width:     p.width,
			noColor:   p.config.NoColor,
			showStats: p.config.ShowStats,
		}
	case StyleSpinner:
		return &spinnerRenderer{
			noColor:   p.config.NoColor,
			showStats: p.config.ShowStats,
		}
	default:
		return &simpleRenderer{
			noColor:   p.config.NoColor,
			showStats: p.config.ShowStats,
		}
	}
}
