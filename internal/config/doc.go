// Package config provides configuration management for the traverser
// command. It reads environment variables through viper and validates every
// parameter; command-line flags override the loaded values.
//
// # Configuration Loading
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variables
//
//	TRAVERSER_WORKERS      Number of concurrent workers (default: CPU cores)
//	TRAVERSER_EXCLUDE      Comma-separated paths to exclude
//	TRAVERSER_SCOPE        Only emit paths matching ^SCOPE
//	TRAVERSER_OUTPUT       Output format: text|tree|json|yaml
//	TRAVERSER_OUTPUT_FILE  Output file path (empty for stdout)
//	TRAVERSER_RATE_LIMIT   Files hashed per second (0 for unlimited)
//	TRAVERSER_BUFFER_SIZE  Buffer size for file reading (default: 4096)
//	TRAVERSER_ALGORITHM    Digest algorithm: sha256|sha1|md5
//	TRAVERSER_KEEP_GOING   Record unreadable files instead of failing
//	TRAVERSER_NO_PROGRESS  Disable progress reporting (true/false)
//	TRAVERSER_NO_COLOR     Disable colored output (true/false)
//	TRAVERSER_VERBOSE      Verbosity level (number of 'v's, or a number)
//
// # Exclusions and Scope
//
// An excluded path removes the path itself and everything below it:
//
//	TRAVERSER_EXCLUDE="./vendor,./build/cache"
//
// The scope is a regular expression anchored at the start of the absolute
// path, so a plain directory prefix works as expected:
//
//	TRAVERSER_SCOPE="/home/me/src/"
//
// # Configuration Validation
//
//   - Workers must be positive and not exceed CPU cores * 4
//   - Output format must be one of: text, tree, json, yaml
//   - Algorithm must be one of: sha256, sha1, md5
//   - BufferSize must be at least 64 bytes
//   - RateLimit must be non-negative
//
// The configuration is immutable after loading and is safe for concurrent
// access.
package config
