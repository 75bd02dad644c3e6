/*
Package logger wraps uber-go/zap behind a small interface used by the
traverser core, the walker, the worker pool and the CLI.

Basic usage:

	log := logger.NewLogger(logger.Config{
	    Verbosity: 0, // info
	})

	log.Info("Traversal started")
	log.Debug("Input classified")  // verbosity >= 1
	log.Trace("File admitted")     // verbosity >= 2

Structured fields:

	log.WithFields(logger.Fields{
	    "run":  runID,
	    "root": "/srv/data",
	}).Info("Walk finished")

Entries are JSON encoded:

	{"level":"info","ts":"2024-01-20T15:04:05.000Z","message":"Walk finished","run":"…","root":"/srv/data"}

The CLI derives verbosity from repeated -v flags or TRAVERSER_VERBOSE ("vv" is 2).

Library callers that want silence use NewNop. All loggers are safe for
concurrent use.
*/
package logger
