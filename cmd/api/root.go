package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	ConfigFile string
	LogLevel   string
	LogFile    string
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir and /etc/linkhub)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error) - overrides config file setting")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

var rootCmd = &cobra.Command{
	Use:   "linkhub",
	Short: "LinkHub is the backend of a personal link hub profile service",
	Example: `linkhub --config config.yml
  linkhub serve --log-level debug
  linkhub migrate -c /etc/linkhub/config.yml`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile(rootCmdPersistentFlags.LogFile)
	},
	RunE: serve,
}

func setLogLevel(level string) {
	if level == "" {
		return
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("invalid log level, keeping default", "level", level)
		return
	}
	log.SetLevel(lvl)
}

func logToFile(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatal("failed to open log file", "path", path, "error", err)
	}
	log.SetOutput(f)
}
