package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Workers is the number of concurrent workers consuming files
	Workers int

	// Excludes are paths skipped together with everything below them
	Excludes []string

	// Scope restricts emitted paths to those matching ^Scope
	Scope string

	// Output specifies the output format (text, tree, json or yaml)
	Output string

	// OutputFile is the path to write the output (empty for stdout)
	OutputFile string

	// RateLimit is the maximum number of file operations per second (0 for unlimited)
	RateLimit int

	// BufferSize is the size of the buffer for file reading
	BufferSize int

	// Algorithm is the digest algorithm (sha256, sha1 or md5)
	Algorithm string

	// KeepGoing records per-file failures instead of failing the traversal
	KeepGoing bool

	// NoProgress disables progress reporting
	NoProgress bool

	// NoColor disables colored output
	NoColor bool

	// Verbose sets the verbosity level
	Verbose int
}

var validOutputFormats = map[string]bool{
	string(OutputFormatText): true,
	string(OutputFormatTree): true,
	string(OutputFormatJSON): true,
	string(OutputFormatYAML): true,
}

var validAlgorithms = map[string]bool{
	"sha256": true,
	"sha1":   true,
	"md5":    true,
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("output", string(OutputFormatText))
	v.SetDefault("buffer_size", DefaultBufferSize)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("keep_going", false)
	v.SetDefault("no_progress", false)
	v.SetDefault("no_color", false)
	v.SetDefault("verbose", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, key := range []string{
		"workers", "exclude", "scope", "output", "output_file", "rate_limit",
		"buffer_size", "algorithm", "keep_going", "no_progress", "no_color", "verbose",
	} {
		_ = v.BindEnv(key)
	}

	cfg := Config{
		Workers:    v.GetInt("workers"),
		Scope:      v.GetString("scope"),
		Output:     strings.ToLower(v.GetString("output")),
		OutputFile: v.GetString("output_file"),
		RateLimit:  v.GetInt("rate_limit"),
		BufferSize: v.GetInt("buffer_size"),
		Algorithm:  strings.ToLower(v.GetString("algorithm")),
		KeepGoing:  v.GetBool("keep_going"),
		NoProgress: v.GetBool("no_progress"),
		NoColor:    v.GetBool("no_color"),
		Verbose:    parseVerbosity(v.GetString("verbose")),
	}

	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	cfg.Excludes = splitList(v.GetString("exclude"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// parseVerbosity accepts a count of v's ("vv") or a number ("2").
func parseVerbosity(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return strings.Count(s, "v")
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers count must be positive")
	}
	maxWorkers := runtime.NumCPU() * MaxWorkerMultiplier
	if c.Workers > maxWorkers {
		return fmt.Errorf("workers count cannot exceed system CPU count * %d", MaxWorkerMultiplier)
	}

	if !validOutputFormats[c.Output] {
		return fmt.Errorf("invalid output format: must be one of [text tree json yaml]")
	}

	if !validAlgorithms[c.Algorithm] {
		return fmt.Errorf("invalid algorithm: must be one of [sha256 sha1 md5]")
	}

	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must be positive")
	}
	if c.BufferSize < MinBufferSize {
		return fmt.Errorf("buffer size must be at least %d bytes", MinBufferSize)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	if c.Verbose < 0 {
		return fmt.Errorf("verbosity must be non-negative")
	}

	return nil
}

// String returns a string representation of the configuration
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Workers: %d, Output: %s, Algorithm: %s, BufferSize: %d, "+
			"RateLimit: %d, KeepGoing: %v, NoProgress: %v, NoColor: %v, Verbose: %d, "+
			"Excludes: %v, Scope: %q, OutputFile: %s}",
		c.Workers, c.Output, c.Algorithm, c.BufferSize,
		c.RateLimit, c.KeepGoing, c.NoProgress, c.NoColor, c.Verbose,
		c.Excludes, c.Scope, c.OutputFile,
	)
}
