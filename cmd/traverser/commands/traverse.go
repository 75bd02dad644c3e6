package commands

import (
	"fmt"
	"strings"

	"github.com/sonemaro/traverser/cmd/traverser/app"
	"github.com/sonemaro/traverser/internal/config"
	"github.com/sonemaro/traverser/pkg/output"
	"github.com/spf13/cobra"
)

// traversalOptions are the flags shared by list and digest
type traversalOptions struct {
	*Options
	excludes   []string
	scope      string
	output     string
	outputFile string
	workers    int
	stats      bool
}

func addTraversalFlags(cmd *cobra.Command, to *traversalOptions) {
	cmd.Flags().StringSliceVarP(&to.excludes, "exclude", "x", nil,
		"path to exclude with everything below it (repeatable)")
	cmd.Flags().StringVarP(&to.scope, "scope", "s", "",
		"only report paths matching this regular expression, anchored at the start")
	cmd.Flags().StringVarP(&to.output, "output", "o", string(config.OutputFormatText),
		"output format: "+strings.Join(output.Formats(), "|"))
	cmd.Flags().StringVarP(&to.outputFile, "file", "f", "",
		"write output to file instead of stdout")
	cmd.Flags().IntVarP(&to.workers, "workers", "w", 0,
		"number of concurrent workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&to.stats, "stats", false,
		"append run statistics to the report")
}

// apply overlays explicitly set flags on the loaded configuration.
func (to *traversalOptions) apply(cmd *cobra.Command) {
	cfg := to.Config
	flags := cmd.Flags()

	if flags.Changed("exclude") {
		cfg.Excludes = append(cfg.Excludes, to.excludes...)
	}
	if flags.Changed("scope") {
		cfg.Scope = to.scope
	}
	if flags.Changed("output") {
		cfg.Output = strings.ToLower(to.output)
	}
	if flags.Changed("file") {
		cfg.OutputFile = to.outputFile
	}
	if flags.Changed("workers") && to.workers > 0 {
		cfg.Workers = to.workers
	}
}

func runTraversal(cmd *cobra.Command, args []string, to *traversalOptions, digest bool) error {
	if len(args) == 0 {
		return fmt.Errorf("requires at least one path argument")
	}

	to.apply(cmd)

	format, err := output.ParseFormat(to.Config.Output)
	if err != nil {
		return err
	}

	appOpts := []app.Option{app.WithOutput(to.Stdout, to.Stderr)}
	if to.Fs != nil {
		appOpts = append(appOpts, app.WithFs(to.Fs))
	}

	application, err := app.New(to.Config, appOpts...)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.Run(&app.RunOptions{
		Inputs:     args,
		Digest:     digest,
		Format:     format,
		OutputPath: to.Config.OutputFile,
		WithStats:  to.stats,
	})
}
