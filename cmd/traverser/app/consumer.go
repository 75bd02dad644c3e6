package app

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sonemaro/traverser/pkg/digest"
	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/sonemaro/traverser/pkg/output"
	"github.com/sonemaro/traverser/pkg/traverser"
	"github.com/spf13/afero"
)

// consumer receives traversed files and turns them into report entries
type consumer interface {
	Handle(path string, ack *traverser.Ack)
	Entries() []output.Entry
	Settled() int64
	BytesRead() int64
}

// listConsumer records each file with its size and acknowledges it at once.
type listConsumer struct {
	fs  afero.Fs
	log logger.Logger

	mu      sync.Mutex
	entries []output.Entry
	settled atomic.Int64
}

func newListConsumer(fs afero.Fs, log logger.Logger) *listConsumer {
	return &listConsumer{fs: fs, log: log}
}

func (l *listConsumer) Handle(path string, ack *traverser.Ack) {
	entry := output.Entry{Path: path}

	if info, err := l.fs.Stat(path); err == nil {
		entry.Size = info.Size()
	} else {
		l.log.WithFields(logger.Fields{
			"path":  path,
			"error": err,
		}).Debug("Failed to stat listed file")
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	ack.Resolve()
	l.settled.Add(1)
}

func (l *listConsumer) Entries() []output.Entry {
	l.mu.Lock()
	entries := append([]output.Entry(nil), l.entries...)
	l.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

func (l *listConsumer) Settled() int64 {
	return l.settled.Load()
}

func (l *listConsumer) BytesRead() int64 {
	return 0
}

// digestConsumer adapts digest.Consumer to report entries.
type digestConsumer struct {
	*digest.Consumer
	hasher *digest.Hasher
}

func (d *digestConsumer) Entries() []output.Entry {
	src := d.Consumer.Entries()
	entries := make([]output.Entry, 0, len(src))

	for _, e := range src {
		entry := output.Entry{
			Path:   e.Path,
			Size:   e.Size,
			Digest: e.Digest,
		}
		if e.Err != nil {
			entry.Error = e.Err.Error()
		}
		entries = append(entries, entry)
	}

	return entries
}

func (d *digestConsumer) BytesRead() int64 {
	return d.hasher.BytesRead()
}
