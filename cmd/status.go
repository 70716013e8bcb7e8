package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aulanet-io/ad-console/internal/config"
	"github.com/aulanet-io/ad-console/internal/install"
	"github.com/aulanet-io/ad-console/internal/logging"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ad-console service status",
	Long:  `Display the current state of the ad-console service, config, and binary.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logging.Setup(resolveLogLevel(), resolveLogFormat())

	s := install.Status()

	fmt.Printf("Platform:   %s\n", s.Platform)
	fmt.Printf("Binary:     %s\n", valueOrNA(s.BinaryPath))
	fmt.Printf("Config:     %s\n", s.ConfigPath)
	fmt.Printf("Installed:  %s\n", boolStatus(s.Installed))
	fmt.Printf("Running:    %s\n", boolStatus(s.Running))

	// Show config summary if present
	if s.Installed {
		cfg, err := config.Load(install.DefaultConfigFile)
		if err == nil {
			fmt.Println()
			fmt.Println("Configuration:")
			fmt.Printf("  Listen:   %s\n", cfg.ListenAddr)
			fmt.Printf("  Scripts:  %s\n", cfg.ScriptsDir)
			fmt.Printf("  Cache:    %s\n", cfg.CacheTTL())
			fmt.Printf("  Timeout:  %s\n", cfg.ScriptTimeout())
		}
	}

	// Show version
	fmt.Printf("\nVersion:    %s\n", rootCmd.Version)

	// Exit code 1 if not running (useful for scripts)
	if !s.Running {
		os.Exit(1)
	}
	return nil
}

func boolStatus(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func valueOrNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
