package digest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/sonemaro/traverser/pkg/traverser"
	"github.com/sonemaro/traverser/pkg/worker"
)

// Consumer hashes every file it is handed on a worker pool and settles the
// file's Ack when the hash is done.
type Consumer struct {
	hasher *Hasher
	pool   worker.Pool
	log    logger.Logger

	nextID  atomic.Int64
	settled atomic.Int64

	mu      sync.Mutex
	entries []Entry
}

// NewConsumer returns a Consumer submitting to pool. The pool must be
// started before the traversal begins.
func NewConsumer(hasher *Hasher, pool worker.Pool, log logger.Logger) *Consumer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Consumer{
		hasher: hasher,
		pool:   pool,
		log:    log,
	}
}

// Handle is a traverser.FileHandler. It blocks while the pool queue is
// full, which holds back the walkers.
func (c *Consumer) Handle(path string, ack *traverser.Ack) {
	id := int(c.nextID.Add(1))

	task := worker.Task{
		ID: id,
		Execute: func(ctx context.Context) (worker.Result, error) {
			entry, err := c.hasher.Sum(ctx, path)
			c.record(entry)
			c.settle(ack, err)

			if err != nil && !c.hasher.config.KeepGoing {
				return worker.Result{ID: id}, err
			}
			return worker.Result{ID: id, Data: entry}, nil
		},
	}

	if err := c.pool.Submit(task); err != nil {
		c.log.WithFields(logger.Fields{
			"error": err,
			"path":  path,
		}).Error("Failed to submit hashing task")

		c.record(Entry{Path: path, Err: err})
		ack.Reject(err)
		c.settled.Add(1)
	}
}

func (c *Consumer) settle(ack *traverser.Ack, err error) {
	defer c.settled.Add(1)

	if err == nil {
		ack.Resolve()
		return
	}

	if c.hasher.config.KeepGoing {
		c.log.WithFields(logger.Fields{
			"error": err,
			"path":  ack.Path(),
		}).Warn("Keeping going after hashing failure")
		ack.Resolve()
		return
	}

	ack.Reject(err)
}

func (c *Consumer) record(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

// Settled returns the number of files whose Ack has been settled.
func (c *Consumer) Settled() int64 {
	return c.settled.Load()
}

// Entries returns every recorded entry sorted by path.
func (c *Consumer) Entries() []Entry {
	c.mu.Lock()
	entries := append([]Entry(nil), c.entries...)
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// Failed returns the entries whose hashing failed.
func (c *Consumer) Failed() []Entry {
	var failed []Entry
	for _, e := range c.Entries() {
		if e.Err != nil {
			failed = append(failed, e)
		}
	}
	return failed
}
