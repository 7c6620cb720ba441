package cli

import (
	_ "embed"
	"fmt"

	"github.com/mgpai22/lyricer/internal/config"
	"github.com/spf13/cobra"
)

//go:embed lyricer.env.example
var envExample string

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print an example lyricer.env file",
	Long: `Print an example configuration file. Save it as
lyricer/lyricer.env inside your config directory (usually ~/.config) or as
.env in the working directory.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), envExample)
		if files := config.EnvFiles(); len(files) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n# read from: %v\n", files)
		}
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
