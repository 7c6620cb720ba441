package cli

import (
	"fmt"

	"github.com/mgpai22/lyricer/internal/sink"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the output file",
	Long: `Remove the lyrics output file, e.g. after lyricer was killed while a
line was still being shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := sink.New(cfg.Output)
		if err := out.Clear(); err != nil {
			return fmt.Errorf("failed to clean output: %w", err)
		}
		logger.Infow("Output removed", "path", out.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
