package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Flags
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "ad-console",
	Short: "HTTP gateway for lab directory administration",
	Long: `ad-console is the server-side console for managing users, groups,
organizational units, and computers in a lab directory. All directory
operations are delegated to external scripts; ad-console fronts them with
an HTTP API, result caching, bulk-operation batching, CSV import
validation, and session derivation from directory event logs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: /etc/ad-console/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env: ADC_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text, json (env: ADC_LOG_FORMAT)")
}

// Execute runs the root command.
func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("ad-console %s\n", version))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveLogLevel returns the log level from flag, environment, or default.
func resolveLogLevel() string {
	if flagLogLevel != "" {
		return flagLogLevel
	}
	if v := os.Getenv("ADC_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}

// resolveLogFormat returns the log format from flag, environment, or default.
func resolveLogFormat() string {
	if flagLogFormat != "" {
		return flagLogFormat
	}
	if v := os.Getenv("ADC_LOG_FORMAT"); v != "" {
		return v
	}
	return "text"
}
