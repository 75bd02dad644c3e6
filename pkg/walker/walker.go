/*
Package walker enumerates the regular files beneath a directory root.

A Walker is cooperative: it hands one file to the callback and does not
look at the next entry until the callback returns. Returning nil from Walk
signals that the root was fully enumerated; any enumeration failure aborts
the walk and is returned.

Basic usage:

	w := walker.New(afero.NewOsFs(), log)
	err := w.Walk(ctx, "/srv/data", func(path string) error {
		fmt.Println(path)
		return nil
	})
*/
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/spf13/afero"
)

// FileFunc receives each regular file found beneath a root. Returning an
// error stops the walk and makes Walk return that error.
type FileFunc func(path string) error

// Walker defines the directory enumeration contract used by the traverser.
type Walker interface {
	// Walk visits every regular file beneath root, one at a time.
	Walk(ctx context.Context, root string, fn FileFunc) error
}

// Stats counts what a walker has seen across all of its walks.
type Stats struct {
	Directories int64
	Files       int64
	Skipped     int64
}

// FSWalker is the afero-backed Walker.
type FSWalker struct {
	fs  afero.Fs
	log logger.Logger

	directories atomic.Int64
	files       atomic.Int64
	skipped     atomic.Int64
}

// New returns a Walker over fs. Symlinked directories are not followed and
// symlinks, devices and sockets are not reported.
func New(fs afero.Fs, log logger.Logger) *FSWalker {
	if log == nil {
		log = logger.NewNop()
	}
	return &FSWalker{fs: fs, log: log}
}

// Walk implements Walker.
func (w *FSWalker) Walk(ctx context.Context, root string, fn FileFunc) error {
	log := w.log.WithFields(logger.Fields{"root": root})
	log.Debug("Walking directory")

	err := afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.WithFields(logger.Fields{
				"error": err,
				"path":  path,
			}).Error("Failed to enumerate entry")
			return &EnumerationError{Path: path, Err: err}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		switch {
		case info.IsDir():
			w.directories.Add(1)
			return nil
		case info.Mode().IsRegular():
			w.files.Add(1)
			log.WithFields(logger.Fields{"path": path}).Trace("Found file")
			return fn(filepath.Clean(path))
		default:
			w.skipped.Add(1)
			log.WithFields(logger.Fields{
				"path": path,
				"mode": info.Mode().String(),
			}).Trace("Skipping non-regular entry")
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	log.Debug("Directory walk finished")
	return nil
}

// Stats returns the counters accumulated so far.
func (w *FSWalker) Stats() Stats {
	return Stats{
		Directories: w.directories.Load(),
		Files:       w.files.Load(),
		Skipped:     w.skipped.Load(),
	}
}
