package cli

import (
	"github.com/mgpai22/lyricer/internal/config"
	"github.com/mgpai22/lyricer/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lyricer",
	Short: "Synchronized lyrics for MPRIS media players",
	Long: `Lyricer follows the track playing in an MPRIS media player and keeps
the current lyric line in a small JSON file that status bars can display.

Lyrics are read from an .lrc file next to the audio file (or in an extra
lyrics directory), from .srt/.vtt sidecars, or from the lyrics tag embedded
in the audio file.

Settings can also be given through LYRICER_* environment variables or a
lyricer.env file in the user config directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		cfg = config.Load(logger)
		return applyFlags(cmd.Flags(), cfg)
	},
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	registerConfigFlags(rootCmd.PersistentFlags())
}

func registerConfigFlags(flags *pflag.FlagSet) {
	defaults := config.Default()

	flags.StringP("output", "o", defaults.Output, "Output file path")
	flags.StringP("player", "p", "", "Only follow players whose bus name contains this")
	flags.Duration("retry-interval", defaults.RetryInterval, "Wait between player searches")
	flags.Duration("tolerance", defaults.Tolerance, "Allowed drift between captions and player")
	flags.StringP("encoding", "e", "", "Caption file encoding (e.g. shift_jis, gbk); default UTF-8")
	flags.StringArray("lyrics-dir", nil, "Extra directory searched for .lrc files (repeatable)")
	flags.Bool("probe", defaults.Probe, "Read embedded lyrics and track length with ffprobe")
}

// flags given on the command line override the environment
func applyFlags(flags *pflag.FlagSet, c *config.Config) error {
	if flags.Changed("output") {
		c.Output, _ = flags.GetString("output")
	}
	if flags.Changed("player") {
		c.Player, _ = flags.GetString("player")
	}
	if flags.Changed("retry-interval") {
		c.RetryInterval, _ = flags.GetDuration("retry-interval")
	}
	if flags.Changed("tolerance") {
		c.Tolerance, _ = flags.GetDuration("tolerance")
	}
	if flags.Changed("encoding") {
		c.Encoding, _ = flags.GetString("encoding")
	}
	if flags.Changed("lyrics-dir") {
		c.LyricsDirs, _ = flags.GetStringArray("lyrics-dir")
	}
	if flags.Changed("probe") {
		c.Probe, _ = flags.GetBool("probe")
	}
	return c.Validate()
}
