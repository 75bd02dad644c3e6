/*
Package traverser reports every file beneath a set of possibly overlapping
roots exactly once, and signals completion after every reported file has
been acknowledged by its consumer.

Inputs are classified once at construction. Plain file inputs are admitted
first; directory inputs are then walked concurrently, one goroutine per
root. Every candidate path goes through the same admission pipeline: the
exclusion and scope filter, then the deduplication ledger. Each admitted
file is handed to the registered FileHandlers together with an Ack the
consumer must settle.

Once every walk has finished the set of pending acknowledgements is sealed.
The traversal completes, and DoneHandlers fire, once every pending Ack has
resolved. A walk error, a rejected Ack or a cancelled context fails the
traversal instead and the done handlers never run.

Basic usage:

	t, err := traverser.New(traverser.Options{
		Inputs:   []string{"./src", "./README.md"},
		Excludes: []string{"./src/vendor"},
	}, afero.NewOsFs(), nil, log)
	if err != nil {
		return err
	}

	t.OnFile(func(path string, ack *traverser.Ack) {
		go func() {
			if err := process(path); err != nil {
				ack.Reject(err)
				return
			}
			ack.Resolve()
		}()
	})

	err = t.Traverse(ctx)
*/
package traverser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/sonemaro/traverser/pkg/walker"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Traverser orchestrates one traversal over its inputs. A Traverser runs
// at most once.
type Traverser struct {
	log        logger.Logger
	walker     walker.Walker
	classifier *Classifier
	filter     *Filter
	ledger     *Ledger
	pending    *pendingSet

	runID string
	files []string
	dirs  []string

	mu           sync.Mutex
	fileHandlers []FileHandler
	doneHandlers []DoneHandler
	state        atomic.Int32

	// serializes FileHandler calls across concurrent walks
	emitMu sync.Mutex

	emitted    atomic.Int64
	duplicates atomic.Int64
	filtered   atomic.Int64
	rejected   atomic.Int64
	startTime  time.Time
	endTime    time.Time
}

// New classifies opts.Inputs against fs and prepares a traversal. Inputs
// that do not exist, cannot be stat'ed, or are neither regular files nor
// directories are dropped. A nil w walks fs with walker.New; a nil log
// discards logs.
func New(opts Options, fs afero.Fs, w walker.Walker, log logger.Logger) (*Traverser, error) {
	if log == nil {
		log = logger.NewNop()
	}

	inputs := make([]string, 0, len(opts.Inputs))
	for _, input := range opts.Inputs {
		if input != "" {
			inputs = append(inputs, input)
		}
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	filter, err := NewFilter(opts.Excludes, opts.ScopeTo)
	if err != nil {
		return nil, err
	}

	if w == nil {
		w = walker.New(fs, log)
	}

	t := &Traverser{
		walker:     w,
		classifier: NewClassifier(fs),
		filter:     filter,
		ledger:     NewLedger(),
		pending:    &pendingSet{},
		runID:      uuid.NewString(),
	}
	t.log = log.WithFields(logger.Fields{"run": t.runID})

	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		path, kind := t.classifier.Classify(input)
		if _, dup := seen[path]; dup {
			continue
		}

		switch kind {
		case KindFile:
			t.files = append(t.files, path)
		case KindDirectory:
			t.dirs = append(t.dirs, path)
		default:
			t.log.WithFields(logger.Fields{
				"input": input,
				"path":  path,
			}).Debug("Dropping unreachable input")
			continue
		}
		seen[path] = struct{}{}
	}

	t.log.WithFields(logger.Fields{
		"files":    t.files,
		"dirs":     t.dirs,
		"excludes": filter.Excludes(),
		"scope":    filter.Scope(),
	}).Debug("Traverser initialized")

	return t, nil
}

// OnFile registers h to receive every admitted file. It must be called
// before the traversal starts.
func (t *Traverser) OnFile(h FileHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != StateIdle {
		return ErrStarted
	}
	t.fileHandlers = append(t.fileHandlers, h)
	return nil
}

// OnDone registers h to run once after a successful traversal. It must be
// called before the traversal starts.
func (t *Traverser) OnDone(h DoneHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != StateIdle {
		return ErrStarted
	}
	t.doneHandlers = append(t.doneHandlers, h)
	return nil
}

// Traverse runs the traversal and blocks until it completes or fails.
func (t *Traverser) Traverse(ctx context.Context) error {
	files, done, err := t.begin()
	if err != nil {
		return err
	}
	return t.run(ctx, files, done)
}

// Start begins the traversal in the background. Handlers registered before
// Start are guaranteed to observe every event; the returned channel yields
// the result of the traversal and is then closed.
func (t *Traverser) Start(ctx context.Context) <-chan error {
	errc := make(chan error, 1)

	files, done, err := t.begin()
	if err != nil {
		errc <- err
		close(errc)
		return errc
	}

	go func() {
		defer close(errc)
		errc <- t.run(ctx, files, done)
	}()

	return errc
}

// begin moves Idle to Traversing and snapshots the registered handlers.
// No registration is accepted past this point.
func (t *Traverser) begin() ([]FileHandler, []DoneHandler, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateTraversing)) {
		return nil, nil, ErrStarted
	}

	files := append([]FileHandler(nil), t.fileHandlers...)
	done := append([]DoneHandler(nil), t.doneHandlers...)
	return files, done, nil
}

func (t *Traverser) run(ctx context.Context, files []FileHandler, done []DoneHandler) error {
	t.startTime = time.Now()

	t.log.WithFields(logger.Fields{
		"files": len(t.files),
		"dirs":  len(t.dirs),
	}).Info("Starting traversal")

	if err := ctx.Err(); err != nil {
		t.pending.Seal()
		return t.fail(fmt.Errorf("traversal cancelled: %w", err))
	}

	for _, path := range t.files {
		if err := t.admit(path, files); err != nil {
			t.pending.Seal()
			return t.fail(err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, dir := range t.dirs {
		dir := dir
		g.Go(func() error {
			return t.walker.Walk(gctx, dir, func(path string) error {
				return t.admit(path, files)
			})
		})
	}
	walkErr := g.Wait()

	// Every walk has returned, so nothing can be admitted past this point.
	t.pending.Seal()

	if walkErr != nil {
		return t.fail(walkErr)
	}

	t.state.Store(int32(StateSealed))
	t.log.WithFields(logger.Fields{
		"pending": t.pending.Len(),
	}).Debug("Walks finished, waiting for acknowledgements")

	if err := t.pending.Wait(ctx); err != nil {
		return t.fail(err)
	}

	t.endTime = time.Now()
	t.state.Store(int32(StateDone))

	t.log.WithFields(logger.Fields{
		"emitted":    t.emitted.Load(),
		"duplicates": t.duplicates.Load(),
		"filtered":   t.filtered.Load(),
		"duration":   t.endTime.Sub(t.startTime),
	}).Info("Traversal completed")

	for _, h := range done {
		h()
	}

	return nil
}

// admit runs one candidate through the filter and the ledger and, when it
// passes both, emits it.
func (t *Traverser) admit(path string, handlers []FileHandler) error {
	if !t.filter.Admits(path) {
		t.filtered.Add(1)
		t.log.WithFields(logger.Fields{"path": path}).Trace("Filtered out")
		return nil
	}

	if !t.ledger.TryClaim(path) {
		t.duplicates.Add(1)
		t.log.WithFields(logger.Fields{"path": path}).Trace("Already emitted")
		return nil
	}

	ack := newAck(path)
	if err := t.pending.Add(ack); err != nil {
		t.log.WithFields(logger.Fields{
			"path":  path,
			"error": err,
		}).Error("File admitted after seal")
		return fmt.Errorf("admit %s: %w", path, err)
	}
	t.emitted.Add(1)

	if len(handlers) == 0 {
		ack.Resolve()
		return nil
	}

	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.log.WithFields(logger.Fields{"path": path}).Trace("Emitting file")
	for _, h := range handlers {
		h(path, ack)
	}

	return nil
}

func (t *Traverser) fail(err error) error {
	t.endTime = time.Now()
	t.state.Store(int32(StateFailed))

	t.rejected.Store(int64(rejectionCount(err)))

	t.log.WithFields(logger.Fields{
		"error":   err,
		"emitted": t.emitted.Load(),
	}).Error("Traversal failed")

	return err
}

// State returns the current lifecycle state.
func (t *Traverser) State() State {
	return State(t.state.Load())
}

// RunID identifies this traversal in logs and reports.
func (t *Traverser) RunID() string {
	return t.runID
}

// Files returns the canonical file inputs.
func (t *Traverser) Files() []string {
	return append([]string(nil), t.files...)
}

// Directories returns the canonical directory inputs.
func (t *Traverser) Directories() []string {
	return append([]string(nil), t.dirs...)
}

// Emitted returns the paths handed to consumers so far, sorted.
func (t *Traverser) Emitted() []string {
	return t.ledger.Paths()
}

// Stats returns counters for the run. Timing fields are only meaningful
// once the traversal has finished.
func (t *Traverser) Stats() Stats {
	s := Stats{
		RunID:      t.runID,
		State:      t.State(),
		FileRoots:  len(t.files),
		DirRoots:   len(t.dirs),
		Emitted:    t.emitted.Load(),
		Duplicates: t.duplicates.Load(),
		Filtered:   t.filtered.Load(),
		Rejected:   t.rejected.Load(),
	}

	if s.State == StateDone || s.State == StateFailed {
		s.StartTime = t.startTime
		s.EndTime = t.endTime
		s.Duration = t.endTime.Sub(t.startTime)
	}

	return s
}
