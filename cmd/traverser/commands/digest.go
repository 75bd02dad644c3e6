package commands

import (
	"strings"

	"github.com/sonemaro/traverser/pkg/digest"
	"github.com/spf13/cobra"
)

type digestOptions struct {
	traversalOptions
	algorithm  string
	rateLimit  int
	bufferSize int
	keepGoing  bool
}

func newDigestCommand(opts *Options) *cobra.Command {
	do := &digestOptions{traversalOptions: traversalOptions{Options: opts}}

	cmd := &cobra.Command{
		Use:   "digest [flags] <path>...",
		Short: "Hash every file under the given paths once",
		Long: `Hash the content of every regular file under the given files and
directories on a worker pool. The traversal completes once every file has
been hashed; a file that cannot be read fails the run unless --keep-going
is set.`,
		Example: `  traverser digest -a sha1 ./release
  traverser digest -w 8 -r 200 -o json -f sums.json /data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			do.apply(cmd)
			return runTraversal(cmd, args, &do.traversalOptions, true)
		},
	}

	addTraversalFlags(cmd, &do.traversalOptions)

	cmd.Flags().StringVarP(&do.algorithm, "algorithm", "a", string(digest.SHA256),
		"digest algorithm: "+strings.Join(digest.Algorithms(), "|"))
	cmd.Flags().IntVarP(&do.rateLimit, "rate-limit", "r", 0,
		"maximum files hashed per second (0 for unlimited)")
	cmd.Flags().IntVarP(&do.bufferSize, "buffer-size", "b", digest.DefaultBufferSize,
		"buffer size for file reading")
	cmd.Flags().BoolVarP(&do.keepGoing, "keep-going", "k", false,
		"report unreadable files instead of failing")

	return cmd
}

func (do *digestOptions) apply(cmd *cobra.Command) {
	cfg := do.Config
	flags := cmd.Flags()

	if flags.Changed("algorithm") {
		cfg.Algorithm = strings.ToLower(do.algorithm)
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = do.rateLimit
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = do.bufferSize
	}
	if flags.Changed("keep-going") {
		cfg.KeepGoing = do.keepGoing
	}
}
