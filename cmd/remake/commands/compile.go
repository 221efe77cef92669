package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <source>",
		Short: "Compile a YAML build source into a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return c.app.Compile(cmd.Context(), args[0], output)
		},
	}
	cmd.Flags().StringP("output", "o", DefaultManifest, "Where to write the manifest")
	return cmd
}
