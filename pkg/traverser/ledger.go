package traverser

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Ledger records every path already handed to consumers during one
// traversal. It only grows.
type Ledger struct {
	claimed *xsync.MapOf[string, struct{}]
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{claimed: xsync.NewMapOf[string, struct{}]()}
}

// TryClaim records path and returns true the first time it is seen. Every
// later call for the same path returns false. Safe for concurrent use.
func (l *Ledger) TryClaim(path string) bool {
	_, loaded := l.claimed.LoadOrStore(path, struct{}{})
	return !loaded
}

// Claimed reports whether path has been claimed.
func (l *Ledger) Claimed(path string) bool {
	_, ok := l.claimed.Load(path)
	return ok
}

// Len returns the number of claimed paths.
func (l *Ledger) Len() int {
	return l.claimed.Size()
}

// Paths returns the claimed paths, sorted.
func (l *Ledger) Paths() []string {
	paths := make([]string, 0, l.claimed.Size())
	l.claimed.Range(func(path string, _ struct{}) bool {
		paths = append(paths, path)
		return true
	})
	sort.Strings(paths)
	return paths
}
