package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jra3/bcf-go/internal/config"
	"github.com/jra3/bcf-go/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "bcf-go",
	Short: "Inspect and edit BCF 2.1 archives",
	Long:  `bcf-go reads BIM Collaboration Format archives and lets you list topics, read comment threads and append comments from the command line.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (not read: config always comes from $XDG_CONFIG_HOME/bcfgo/config.yaml or ~/.config/bcfgo/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
}

// newLogger builds the command logger from config and the --debug flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if debug, _ := cmd.Root().PersistentFlags().GetBool("debug"); debug {
		level = "debug"
	}
	return logging.NewLogger(os.Stderr, level, cfg.Log.Format)
}
