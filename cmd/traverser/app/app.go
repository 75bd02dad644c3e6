/*
Package app provides the application container for the traverser command.
It wires the traversal core to its consumers, the worker pool, progress
display and report formatting, and handles graceful shutdown.

The container manages:
- Logger for structured logging
- Traverser and walker for file discovery
- Worker pool and hasher for the digest consumer
- Progress visualization
- Output formatting

Usage:

	app, err := app.New(cfg)
	if err != nil {
	    log.Fatal(err)
	}
	defer app.Shutdown()

	if err := app.Run(&app.RunOptions{Inputs: paths}); err != nil {
	    log.Fatal(err)
	}
*/
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sonemaro/traverser/internal/config"
	"github.com/sonemaro/traverser/pkg/digest"
	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/sonemaro/traverser/pkg/output"
	"github.com/sonemaro/traverser/pkg/progress"
	"github.com/sonemaro/traverser/pkg/traverser"
	"github.com/sonemaro/traverser/pkg/walker"
	"github.com/sonemaro/traverser/pkg/worker"
	"github.com/spf13/afero"
)

// RunOptions defines one traversal run
type RunOptions struct {
	// Inputs are the files and directories to traverse
	Inputs []string

	// Digest hashes every file instead of only listing it
	Digest bool

	// Format of the report (text, tree, json, yaml)
	Format output.Format

	// OutputPath receives the report (empty for stdout)
	OutputPath string

	// WithStats appends run statistics to the report
	WithStats bool
}

// App represents the main application container
type App struct {
	config *config.Config
	log    logger.Logger
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	pool     worker.Pool
	progress progress.Progress

	ctx     context.Context
	cancel  context.CancelFunc
	signals chan os.Signal
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
}

// Option customizes an App.
type Option func(*App)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithOutput replaces stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(log logger.Logger) Option {
	return func(a *App) { a.log = log }
}

// New creates a new application instance
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config:  cfg,
		fs:      afero.NewOsFs(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.log == nil {
		a.initLogger()
	}
	a.initProgress()
	a.setupSignalHandling()

	a.log.WithFields(logger.Fields{
		"workers": cfg.Workers,
		"verbose": cfg.Verbose,
	}).Debug("Application initialized")

	return a, nil
}

// Run traverses opts.Inputs and writes the report
func (a *App) Run(opts *RunOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic")
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	a.log.WithFields(logger.Fields{
		"inputs":   opts.Inputs,
		"digest":   opts.Digest,
		"format":   opts.Format,
		"excludes": a.config.Excludes,
		"scope":    a.config.Scope,
	}).Info("Starting traversal")

	t, err := traverser.New(traverser.Options{
		Inputs:   opts.Inputs,
		ScopeTo:  a.config.Scope,
		Excludes: a.config.Excludes,
	}, a.fs, walker.New(a.fs, a.log), a.log)
	if err != nil {
		return fmt.Errorf("failed to prepare traversal: %w", err)
	}

	var c consumer
	if opts.Digest {
		c, err = a.newDigestConsumer()
		if err != nil {
			return err
		}
	} else {
		c = newListConsumer(a.fs, a.log)
	}

	if err := t.OnFile(c.Handle); err != nil {
		return err
	}

	message := "Listing files"
	if opts.Digest {
		message = "Hashing files"
	}
	a.progress.Start(message)

	stopMonitor := a.monitor(t, c)
	runErr := t.Traverse(a.ctx)
	stopMonitor()

	if a.pool != nil {
		if _, err := a.pool.Wait(); err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
			}).Debug("Worker pool reported task failures")
		}
	}

	if runErr != nil {
		a.progress.Error(fmt.Sprintf("Traversal failed: %v", runErr))
		return fmt.Errorf("traversal failed: %w", runErr)
	}

	report := &output.Report{
		Entries:   c.Entries(),
		Stats:     t.Stats(),
		Generated: time.Now(),
	}
	if opts.Digest {
		report.Algorithm = a.config.Algorithm
	}

	formatter := output.NewFormatter(output.Config{
		Format:     opts.Format,
		WithStats:  opts.WithStats,
		WithColors: !a.config.NoColor && opts.OutputPath == "",
	}, a.log)

	formatted, err := formatter.Format(report)
	if err != nil {
		a.progress.Error(fmt.Sprintf("Formatting failed: %v", err))
		return fmt.Errorf("output formatting failed: %w", err)
	}

	a.progress.Complete("Complete")
	a.progress.Stop()

	if err := a.writeOutput(formatted, opts.OutputPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	stats := report.Stats
	a.log.WithFields(logger.Fields{
		"run":        stats.RunID,
		"emitted":    stats.Emitted,
		"duplicates": stats.Duplicates,
		"filtered":   stats.Filtered,
		"duration":   stats.Duration,
		"outputTo":   opts.OutputPath,
	}).Info("Traversal completed")

	return nil
}

// Shutdown releases every resource held by the application. Safe to call
// more than once.
func (a *App) Shutdown() error {
	var err error

	a.once.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.log.Debug("Shutting down")

		a.cancel()
		a.stopSignalHandling()
		a.progress.Stop()

		if a.pool != nil {
			if stopErr := a.pool.Stop(); stopErr != nil {
				a.log.WithFields(logger.Fields{
					"error": stopErr,
				}).Error("Failed to stop worker pool")
				err = stopErr
			}
		}

		close(a.done)
		a.log.Debug("Shutdown complete")
	})

	return err
}

func (a *App) initLogger() {
	a.log = logger.NewLogger(logger.Config{
		Verbosity: a.config.Verbose,
		Output:    a.stderr,
	})

	a.log.WithFields(logger.Fields{
		"verbosity": a.config.Verbose,
	}).Debug("Logger initialized")
}

func (a *App) initProgress() {
	cfg := progress.Config{
		Style:       progress.StyleBar,
		ShowStats:   true,
		NoColor:     a.config.NoColor,
		RefreshRate: 100 * time.Millisecond,
		Writer:      a.stderr,
	}

	// Nothing is drawn when disabled or when stderr is not a terminal.
	if a.config.NoProgress {
		cfg.Writer = io.Discard
	}

	a.progress = progress.New(cfg, a.log)
	if !a.config.NoProgress && !a.progress.IsSupportedTerminal() {
		cfg.Writer = io.Discard
		a.progress = progress.New(cfg, a.log)
	}
}

func (a *App) newDigestConsumer() (consumer, error) {
	hasher, err := digest.NewHasher(a.fs, digest.Config{
		Algorithm:  digest.Algorithm(a.config.Algorithm),
		BufferSize: a.config.BufferSize,
		KeepGoing:  a.config.KeepGoing,
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create hasher: %w", err)
	}

	pool, err := worker.NewPool(worker.Config{
		Workers:   a.config.Workers,
		RateLimit: a.config.RateLimit,
	})
	if err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to create worker pool")
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	if err := pool.Start(a.ctx); err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to start worker pool")
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}

	a.mu.Lock()
	a.pool = pool
	a.mu.Unlock()

	return &digestConsumer{
		Consumer: digest.NewConsumer(hasher, pool, a.log),
		hasher:   hasher,
	}, nil
}

// monitor feeds the progress display until the returned func is called.
func (a *App) monitor(t *traverser.Traverser, c consumer) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				stats := t.Stats()
				a.progress.Update(progress.Status{
					Emitted:   stats.Emitted,
					Settled:   c.Settled(),
					Skipped:   stats.Duplicates + stats.Filtered,
					BytesRead: c.BytesRead(),
					Sealed:    stats.State != traverser.StateTraversing,
				})
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}

// writeOutput writes the report to stdout or to outputPath
func (a *App) writeOutput(content string, outputPath string) error {
	a.log.WithFields(logger.Fields{
		"path": outputPath,
	}).Debug("Writing output")

	if outputPath == "" {
		_, err := io.WriteString(a.stdout, content)
		if err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
			}).Error("Failed to write to stdout")
		}
		return err
	}

	if err := a.fs.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := afero.WriteFile(a.fs, outputPath, []byte(content), 0644); err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
			"path":  outputPath,
		}).Error("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	a.log.WithFields(logger.Fields{
		"path": outputPath,
	}).Info("Output written successfully")
	return nil
}
