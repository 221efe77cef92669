package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/remake/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Build the given targets and their dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			named, _ := cmd.Flags().GetStringArray("target")
			targets := append(named, args...)
			if len(targets) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}

			file, _ := cmd.Flags().GetString("file")
			jobs, _ := cmd.Flags().GetInt("jobs")
			strict, _ := cmd.Flags().GetBool("strict")

			opts := app.RunOptions{
				ManifestPath: file,
				Jobs:         jobs,
				Strict:       strict,
			}
			if progress, _ := cmd.Flags().GetBool("progress"); progress {
				opts.Progress = cmd.ErrOrStderr()
			}

			return c.app.Run(cmd.Context(), targets, opts)
		},
	}
	cmd.Flags().StringP("file", "f", DefaultManifest, "Path to the compiled manifest")
	cmd.Flags().StringArrayP("target", "t", nil, "Target to build (repeatable)")
	cmd.Flags().IntP("jobs", "j", 1, "Number of targets to build in parallel")
	cmd.Flags().Bool("strict", false, "Reject manifests that declare a target more than once")
	cmd.Flags().Bool("progress", false, "Print a line to stderr as each target finishes")
	return cmd
}
