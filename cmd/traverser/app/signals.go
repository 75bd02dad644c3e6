package app

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sonemaro/traverser/pkg/logger"
)

// exitInterrupted is the exit status after a forced shutdown
const exitInterrupted = 130

// signalState tracks the state of signal handling
type signalState struct {
	shutdownInitiated atomic.Bool
}

// setupSignalHandling cancels the running traversal on the first SIGINT or
// SIGTERM and exits on the second.
func (a *App) setupSignalHandling() {
	a.log.Debug("Initializing signal handlers")

	signal.Notify(a.signals, syscall.SIGINT, syscall.SIGTERM)

	go a.handleSignals(&signalState{})
}

func (a *App) stopSignalHandling() {
	signal.Stop(a.signals)
}

func (a *App) handleSignals(state *signalState) {
	for {
		select {
		case <-a.done:
			return
		case sig := <-a.signals:
			a.log.WithFields(logger.Fields{
				"signal": sig.String(),
			}).Debug("Received system signal")

			if !state.shutdownInitiated.CompareAndSwap(false, true) {
				a.handleForcedShutdown()
				return
			}

			a.handleGracefulShutdown()
		}
	}
}

// handleGracefulShutdown cancels the traversal context. Walks stop between
// entries, hashing tasks stop between chunks, and Run returns the
// cancellation error.
func (a *App) handleGracefulShutdown() {
	a.log.Warn("Interrupt received, cancelling traversal (interrupt again to force)")
	a.cancel()
}

// handleForcedShutdown stops what it can and exits immediately
func (a *App) handleForcedShutdown() {
	a.log.Warn("Forced shutdown initiated")

	a.progress.Stop()

	a.mu.RLock()
	pool := a.pool
	a.mu.RUnlock()

	if pool != nil {
		if err := pool.Stop(); err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
			}).Error("Failed to stop worker pool during forced shutdown")
		}
	}

	os.Exit(exitInterrupted)
}
