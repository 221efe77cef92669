package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/remake/internal/core/domain"
)

func (c *CLI) newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets [roots...]",
		Short: "List the targets declared by a manifest, or those the given roots need",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, roots []string) error {
			file, _ := cmd.Flags().GetString("file")
			strict, _ := cmd.Flags().GetBool("strict")
			verbose, _ := cmd.Flags().GetBool("verbose")

			listing, err := c.app.Targets(cmd.Context(), file, roots, domain.DecodeOptions{Strict: strict})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "# %s v%d digest %016x\n", listing.Platform, listing.Version, listing.Digest)
			for _, t := range listing.Targets {
				if len(t.Dependencies) == 0 {
					_, _ = fmt.Fprintln(out, t.Name)
				} else {
					_, _ = fmt.Fprintf(out, "%s: %s\n", t.Name, strings.Join(t.Dependencies, " "))
				}
				if verbose {
					for _, command := range t.Commands {
						_, _ = fmt.Fprintf(out, "\t%s\n", command)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", DefaultManifest, "Path to the compiled manifest")
	cmd.Flags().Bool("strict", false, "Reject manifests that declare a target more than once")
	cmd.Flags().BoolP("verbose", "v", false, "Print the commands of each target")
	return cmd
}
