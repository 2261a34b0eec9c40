package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jllopis/aura/pkg/bridge"
	"github.com/jllopis/aura/pkg/capability"
	"github.com/jllopis/aura/pkg/config"
	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/dispatch"
	"github.com/jllopis/aura/pkg/ledger"
	"github.com/jllopis/aura/pkg/orchestrator"
	"github.com/jllopis/aura/pkg/resilience"
	"github.com/jllopis/aura/pkg/server"
	"github.com/jllopis/aura/pkg/telemetry"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()
	args := flag.Args()

	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	switch cmd {
	case "serve":
		if err := runServe(ctx, cfg, *configPath); err != nil {
			fatal(err)
		}
	case "dispatcher":
		if err := runDispatcher(cfg); err != nil {
			fatal(err)
		}
	case "version":
		fmt.Println(version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", cmd))
	}
}

func runServe(ctx context.Context, cfg *config.Config, configPath string) error {
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	shutdownTelemetry, err := telemetry.InitWithConfig("aura", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	command, args := dispatcherCommand(cfg, configPath)
	conn := bridge.New(bridge.Config{
		Command:           command,
		Args:              args,
		ProtocolVersion:   cfg.Dispatcher.ProtocolVersion,
		ConnectTimeout:    cfg.Dispatcher.ConnectTimeout,
		CallTimeout:       cfg.Dispatcher.CallTimeout,
		DisconnectTimeout: cfg.Dispatcher.DisconnectTimeout,
	}, logger)

	// A dead dispatcher at boot is not fatal. The orchestrator retries
	// the connection when commands arrive.
	retry := resilience.DefaultRetryConfig().WithMaxAttempts(cfg.Dispatcher.ConnectRetries)
	if err := retry.Do(ctx, func() error { return conn.Connect(ctx) }); err != nil {
		logger.Warn("dispatcher unreachable at startup", "error", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.Dispatcher.DisconnectTimeout+time.Second)
		defer cancel()
		if err := conn.Disconnect(disconnectCtx); err != nil {
			logger.Warn("bridge disconnect", "error", err)
		}
	}()

	calendar := capability.NewWebhookCalendar(cfg.Calendar.WebhookURL, cfg.Calendar.Timeout, logger)
	social := capability.NewHTTPSocial(cfg.Social.APIBaseURL, cfg.Social.BearerToken, cfg.Social.Timeout, logger)

	taskLedger := ledger.New(logger)
	orchOpts := []orchestrator.Option{
		orchestrator.WithFallbackCalendar(calendar),
		orchestrator.WithFallbackSocial(social),
	}

	if cfg.Ledger.ArchivePath != "" {
		archive, err := ledger.OpenArchive(cfg.Ledger.ArchivePath)
		if err != nil {
			return fmt.Errorf("open task archive: %w", err)
		}
		defer archive.Close()
		orchOpts = append(orchOpts, orchestrator.WithArchive(archive))
	}

	metrics, err := telemetry.NewCommandMetrics()
	if err != nil {
		logger.Warn("metrics unavailable", "error", err)
	} else {
		orchOpts = append(orchOpts, orchestrator.WithMetrics(metrics))
	}

	orch := orchestrator.New(conn, taskLedger, logger, orchOpts...)

	health := buildHealthRegistry(conn, cfg, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(orch, health, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("aura listening", "addr", cfg.Server.Addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func runDispatcher(cfg *config.Config) error {
	// Stdout carries the protocol; logs go to stderr only.
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	registry, err := dispatch.BuildRegistry(dispatch.Providers{
		Browser:  &capability.StubBrowser{Logger: logger},
		Calendar: capability.NewWebhookCalendar(cfg.Calendar.WebhookURL, cfg.Calendar.Timeout, logger),
		Social:   capability.NewHTTPSocial(cfg.Social.APIBaseURL, cfg.Social.BearerToken, cfg.Social.Timeout, logger),
		Email:    capability.NewSMTPEmail(cfg.Email.SMTPAddr, cfg.Email.From, cfg.Email.Password, logger),
	}, logger)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	return dispatch.NewServer("aura-dispatcher", version, registry, logger).ServeStdio()
}

// dispatcherCommand resolves how the bridge launches the dispatcher. An
// empty configured command re-executes the current binary.
func dispatcherCommand(cfg *config.Config, configPath string) (string, []string) {
	if cfg.Dispatcher.Command != "" {
		return cfg.Dispatcher.Command, cfg.Dispatcher.Args
	}
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	args := []string{}
	if configPath != "" {
		args = append(args, "-config", configPath)
	}
	args = append(args, "dispatcher")
	return self, args
}

func buildHealthRegistry(conn *bridge.Bridge, cfg *config.Config, logger *slog.Logger) *core.HealthRegistry {
	health := core.NewHealthRegistry()

	health.Register("bridge", core.HealthCheckerFunc(func(ctx context.Context) core.HealthResult {
		if !conn.Connected() {
			return core.HealthResult{
				Status:  core.HealthDegraded,
				Message: "not connected to dispatcher",
			}
		}
		return core.HealthResult{
			Status:  core.HealthHealthy,
			Message: "connected",
			Details: map[string]any{"protocol_version": conn.ProtocolVersion()},
		}
	}))

	// The dispatcher exposes the same tool table this process builds in
	// dispatcher mode, so the names are known without a round trip.
	registry, err := dispatch.BuildRegistry(dispatch.Providers{
		Browser:  &capability.StubBrowser{Logger: logger},
		Calendar: capability.NewWebhookCalendar(cfg.Calendar.WebhookURL, cfg.Calendar.Timeout, logger),
		Social:   capability.NewHTTPSocial(cfg.Social.APIBaseURL, cfg.Social.BearerToken, cfg.Social.Timeout, logger),
		Email:    capability.NewSMTPEmail(cfg.Email.SMTPAddr, cfg.Email.From, cfg.Email.Password, logger),
	}, logger)
	if err != nil {
		return health
	}
	health.Register("dispatcher", core.HealthCheckerFunc(func(ctx context.Context) core.HealthResult {
		status := core.HealthHealthy
		if !conn.Connected() {
			status = core.HealthDegraded
		}
		return core.HealthResult{
			Status:  status,
			Details: map[string]any{"tools": registry.Names()},
		}
	}))

	return health
}

func printUsage() {
	fmt.Println(`Aura command orchestrator

Usage:
  aura [-config <path>] <command>

Commands:
  serve       Run the HTTP command server (default)
  dispatcher  Run the tool dispatcher on stdio
  version     Print the version
  help        Show this help`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
