// Package main is the entry point for the pagefort binary, the front-edge
// server that attaches security policy headers to every inbound request.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pagefort/pagefort/pkg/branding"
	"github.com/pagefort/pagefort/pkg/config"
	"github.com/pagefort/pagefort/pkg/gate"
	"github.com/pagefort/pagefort/pkg/i18n"
	"github.com/pagefort/pagefort/pkg/logging"
	"github.com/pagefort/pagefort/pkg/policy"
	"github.com/pagefort/pagefort/pkg/server"
	"github.com/pagefort/pagefort/pkg/telemetry"
)

const (
	defaultConfigPath = "pagefort.yaml"
	defaultLogLevel   = "info"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for pagefort.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagefort",
		Short: "Security-header policy gate for web frontends",
		Long: `Pagefort sits in front of a web application and attaches per-request
security headers (Content-Security-Policy with a per-request nonce,
Strict-Transport-Security, framing and content-type protections) to every
non-excluded response, falling back to a minimal safe policy when
construction fails.`,
		RunE: runServer,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("listen", "a", "", "Address to listen on (overrides config)")
	rootCmd.Flags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("pretty", false, "Enable pretty console logging")

	return rootCmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	listenAddr, err := cmd.Flags().GetString("listen")
	if err != nil {
		return fmt.Errorf("failed to get listen flag: %w", err)
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return fmt.Errorf("failed to get pretty flag: %w", err)
	}

	if configPath == "" {
		if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
			configPath = defaultConfigPath
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") || cfg.Logging.Level == "" {
		cfg.Logging.Level = logLevel
	}
	if pretty {
		cfg.Logging.Pretty = true
	}
	if listenAddr != "" {
		cfg.Server.Address = listenAddr
	}

	logging.SetupLogger(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	logger := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	log.Info().Str("config", configPath).Str("mode", cfg.Security.Mode).Msg("starting pagefort")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "pagefort",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Environment: cfg.Security.Mode,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	// Branding collaborator, with file watcher when a source is configured.
	var brandingResolver branding.Resolver = branding.NewStaticResolver(branding.DefaultPayload())
	if cfg.Branding.File != "" {
		fileResolver := branding.NewFileResolver(cfg.Branding.File, logger)
		brandingResolver = fileResolver

		watcher, watchErr := branding.NewWatcher(cfg.Branding.File, fileResolver.Reload, logger)
		if watchErr != nil {
			log.Warn().Err(watchErr).Msg("branding watcher unavailable")
		} else if startErr := watcher.Start(ctx); startErr != nil {
			log.Warn().Err(startErr).Msg("branding watcher failed to start")
		} else {
			defer func() {
				if stopErr := watcher.Stop(); stopErr != nil {
					log.Warn().Err(stopErr).Msg("branding watcher stop failed")
				}
			}()
		}
	}

	// Translation collaborator.
	var catalog *i18n.Catalog
	if cfg.Messages.File != "" {
		catalog, err = i18n.LoadCatalog(cfg.Messages.File)
		if err != nil {
			return fmt.Errorf("load messages: %w", err)
		}
	}

	policyGate := gate.New(gate.Config{
		Mode:             policy.Mode(cfg.Security.Mode),
		APIOrigin:        cfg.Security.APIOrigin,
		TrustedOrigins:   policy.ParseTrustedOrigins(cfg.Security.TrustedOrigins),
		ExcludedPrefixes: cfg.Security.ExcludedPrefixes,
		ExcludedPaths:    cfg.Security.ExcludedPaths,
	}, logger)

	handler := server.New(server.Config{
		Gate:     policyGate,
		Branding: brandingResolver,
		Messages: catalog,
		Metrics:  server.NewMetrics(),
		Logger:   logger,
	})

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("bind listener on %s: %w", cfg.Server.Address, err)
	}
	log.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	errCh := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case serveErr := <-errCh:
		return fmt.Errorf("server failed: %w", serveErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown error")
	}
	return nil
}
