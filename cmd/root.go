package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	dataDir    string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bsofs",
	Short: "Bat swarm feature selection for intrusion detection datasets",
	Long: `bsofs searches for a compact subset of network-flow features with a
binary bat swarm optimizer, scoring subsets by their ranked feature importance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		// Results go to stdout, logs to stderr.
		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML run configuration (defaults apply to omitted keys)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory of the run archive")
}
