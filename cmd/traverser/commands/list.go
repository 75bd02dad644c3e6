package commands

import (
	"github.com/spf13/cobra"
)

func newListCommand(opts *Options) *cobra.Command {
	to := &traversalOptions{Options: opts}

	cmd := &cobra.Command{
		Use:   "list [flags] <path>...",
		Short: "List every file under the given paths once",
		Long: `List every regular file under the given files and directories. Files
reachable through more than one input are listed once.`,
		Example: `  traverser list ./src ./docs
  traverser list -x ./src/vendor -o tree ./src
  traverser list -s "$PWD/src/" .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraversal(cmd, args, to, false)
		},
	}

	addTraversalFlags(cmd, to)

	return cmd
}
