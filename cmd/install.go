package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aulanet-io/ad-console/internal/install"
	"github.com/aulanet-io/ad-console/internal/logging"
)

var (
	flagInstallListen  string
	flagInstallScripts string
	flagInstallOrigin  string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install ad-console as a system service",
	Long: `Install ad-console as a systemd service (Linux) or launchd daemon (macOS).

This command:
  1. Verifies the scripts directory exists
  2. Writes a config file to /etc/ad-console/config.yaml
  3. Creates and enables a system service
  4. Starts the service immediately

The service runs 'ad-console serve' with the written config.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&flagInstallListen, "listen", ":8420", "Listen address for the gateway")
	installCmd.Flags().StringVar(&flagInstallScripts, "scripts-dir", "", "Directory holding the admin scripts (required)")
	installCmd.Flags().StringVar(&flagInstallOrigin, "cors-origin", "*", "Allowed CORS origin for the web frontend")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	logging.Setup(resolveLogLevel(), resolveLogFormat())

	if flagInstallScripts == "" {
		return fmt.Errorf("--scripts-dir is required")
	}
	if fi, err := os.Stat(flagInstallScripts); err != nil || !fi.IsDir() {
		return fmt.Errorf("scripts dir %s is not a directory", flagInstallScripts)
	}

	fmt.Println("Installing ad-console...")

	cfg := install.InstallConfig{
		ListenAddr: flagInstallListen,
		ScriptsDir: flagInstallScripts,
		CORSOrigin: flagInstallOrigin,
	}

	if err := install.Install(cfg); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	fmt.Println("ad-console installed and running.")
	fmt.Printf("  Config:  %s\n", install.DefaultConfigFile)
	fmt.Printf("  Listen:  %s\n", flagInstallListen)
	fmt.Printf("  Scripts: %s\n", flagInstallScripts)
	fmt.Println("\nCheck status with: ad-console status")
	return nil
}
