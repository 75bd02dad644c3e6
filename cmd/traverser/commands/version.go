package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sonemaro/traverser/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newVersionCommand(opts *Options) *cobra.Command {
	var (
		showFull bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				data, err := json.MarshalIndent(version.GetBuildInfo(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(version.GetBuildInfo())
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(data))
			case "", "text":
				if showFull {
					fmt.Fprintln(out, version.FullVersion())
				} else {
					fmt.Fprintln(out, version.Short())
				}
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showFull, "full", "f", false,
		"show full version information")
	cmd.Flags().StringVarP(&format, "output", "o", "text",
		"output format: text|json|yaml")

	return cmd
}
