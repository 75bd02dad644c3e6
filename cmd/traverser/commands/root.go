/*
Package commands implements the CLI for traverser: a root command carrying
the global flags and the list, digest and version subcommands.
*/
package commands

import (
	"fmt"
	"io"

	"github.com/sonemaro/traverser/internal/config"
	"github.com/sonemaro/traverser/internal/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Options holds command-line options that apply to all commands
type Options struct {
	Config     *config.Config
	Verbose    int
	NoProgress bool
	NoColor    bool

	// Stdout and Stderr default to the command's streams
	Stdout io.Writer
	Stderr io.Writer

	// Fs replaces the OS filesystem when set
	Fs afero.Fs
}

// NewRootCommand creates the root command for the application
func NewRootCommand() *cobra.Command {
	return newRootCommand(&Options{})
}

func newRootCommand(opts *Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "traverser [command] [flags] <path>...",
		Short: "Report every file under a set of paths exactly once",
		Long: `traverser ` + version.Version + `
========================================

Walks any mix of files and directories concurrently, skips excluded paths
and anything outside the scope, and reports every file exactly once even
when the inputs overlap.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeCommand(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v",
		"verbose output (can be used multiple times)")
	rootCmd.PersistentFlags().BoolVar(&opts.NoProgress, "no-progress", false,
		"disable progress reporting")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false,
		"disable colored output")

	rootCmd.AddCommand(
		newListCommand(opts),
		newDigestCommand(opts),
		newVersionCommand(opts),
	)

	return rootCmd
}

// initializeCommand loads the environment configuration and applies the
// global flags that were set explicitly.
func initializeCommand(cmd *cobra.Command, opts *Options) error {
	opts.Stdout = cmd.OutOrStdout()
	opts.Stderr = cmd.ErrOrStderr()

	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = opts.Verbose
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = opts.NoProgress
	}
	if flags.Changed("no-color") {
		cfg.NoColor = opts.NoColor
	}

	opts.Config = &cfg
	return nil
}
