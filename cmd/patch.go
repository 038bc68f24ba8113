package cmd

import (
	"github.com/spf13/cobra"

	"roamexport/internal/pipeline"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Rewrite id links in the org files without exporting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), pipeline.WithSkipExport())
	},
}

func init() {
	rootCmd.AddCommand(patchCmd)
}
