package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aulanet-io/ad-console/internal/api"
	"github.com/aulanet-io/ad-console/internal/audit"
	"github.com/aulanet-io/ad-console/internal/batch"
	"github.com/aulanet-io/ad-console/internal/cache"
	"github.com/aulanet-io/ad-console/internal/config"
	"github.com/aulanet-io/ad-console/internal/directory"
	"github.com/aulanet-io/ad-console/internal/logging"
	"github.com/aulanet-io/ad-console/internal/script"
)

const (
	breakerThreshold = 3
	breakerCooldown  = 30 * time.Second
	shutdownGrace    = 10 * time.Second
)

var (
	flagListenAddr string
	flagScriptsDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Long: `Run the ad-console HTTP gateway.

The gateway serves the directory API, the batch endpoints, and the live
session websocket feed. Directory reads are cached; mutations run the
corresponding script and invalidate the cache on success.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListenAddr, "listen", "", "Listen address (env: ADC_LISTEN_ADDR)")
	serveCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "Directory holding the admin scripts (env: ADC_SCRIPTS_DIR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Flags take priority over the config file and environment.
	if flagScriptsDir != "" {
		os.Setenv("ADC_SCRIPTS_DIR", flagScriptsDir)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagListenAddr != "" {
		cfg.ListenAddr = flagListenAddr
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	auditPath := cfg.AuditLogPath
	if auditPath == "" {
		auditPath = audit.DefaultPath
	}
	auditLog, err := audit.NewLogger(auditPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditLog.Close()

	breaker := script.NewBreaker(breakerThreshold, breakerCooldown)
	runner := script.NewRunner(cfg.ScriptsDir, cfg.ScriptTimeout(), breaker)
	store := cache.New(cfg.CacheTTL())
	dir := directory.NewService(runner, store, auditLog)
	jobs := batch.NewRegistry(batch.NewEngine())

	srv := api.NewServer(api.ServerConfig{
		Addr:       cfg.ListenAddr,
		CORSOrigin: cfg.CORSOrigin,
	}, dir, jobs)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Default().Info("ad-console started",
		"version", rootCmd.Version,
		"addr", cfg.ListenAddr,
		"scripts_dir", cfg.ScriptsDir)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Default().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
