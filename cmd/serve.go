package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/dropboxmcp/internal/config"
	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/logging"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/source"
	"github.com/teemow/dropboxmcp/internal/tools/dropbox_tools"
)

const shutdownTimeout = 10 * time.Second

var metricsStartupTimeout = 5 * time.Second

// serveFlags holds the raw flag values; only flags the user set override the
// loaded configuration.
type serveFlags struct {
	configPath     string
	transport      string
	httpAddr       string
	httpAuthToken  string
	readOnly       bool
	debug          bool
	downloadDir    string
	maxUploadBytes int64
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Dropbox file tools
to AI assistants.

The Dropbox access token is read from DROPBOX_ACCESS_TOKEN. The server does not
start without it.

Supported transports:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on /mcp, with /healthz and /readyz

Configuration is read from the optional --config YAML file, then from the
environment, then from flags given on the command line.

Read-only mode:
  With --read-only only the list, revisions, search and download tools are
  registered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	bindServeFlags(cmd, &flags)

	return cmd
}

func bindServeFlags(cmd *cobra.Command, flags *serveFlags) {
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", ":8080", "HTTP listen address (for streamable-http transport)")
	cmd.Flags().StringVar(&flags.httpAuthToken, "http-auth-token", "", "Bearer token required on /mcp (streamable-http only)")
	cmd.Flags().BoolVar(&flags.readOnly, "read-only", false, "Register only tools that do not modify the account")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.downloadDir, "download-dir", os.TempDir(), "Directory the download tool writes into")
	cmd.Flags().Int64Var(&flags.maxUploadBytes, "max-upload-bytes", source.DefaultMaxBytes, "Maximum size of content uploaded from a URL or local file")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on a dedicated port (streamable-http only)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server listen address")
}

// resolveConfig loads the configuration and applies the flags that were set
// explicitly, then validates the result.
func resolveConfig(cmd *cobra.Command, flags serveFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("transport") {
		cfg.Transport = flags.transport
	}
	if changed("http-addr") {
		cfg.HTTPAddr = flags.httpAddr
	}
	if changed("http-auth-token") {
		cfg.HTTPAuthToken = flags.httpAuthToken
	}
	if changed("read-only") {
		cfg.ReadOnly = flags.readOnly
	}
	if changed("debug") {
		cfg.Debug = flags.debug
	}
	if changed("download-dir") {
		cfg.DownloadDir = flags.downloadDir
	}
	if changed("max-upload-bytes") {
		cfg.MaxUploadBytes = flags.maxUploadBytes
	}
	if changed("metrics-enabled") {
		cfg.Metrics.Enabled = flags.metricsEnabled
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the stdio transport, so logs always go to stderr.
	logger := logging.New(os.Stderr, logging.FormatText, cfg.Debug)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	logger.Debug("creating Dropbox client", "token", logging.SanitizeToken(cfg.AccessToken))
	client, err := dropbox.NewClient(shutdownCtx, dropbox.Config{
		AccessToken: cfg.AccessToken,
		Metrics:     metrics,
		Logger:      logging.WithService(logger, instrumentation.ServiceDropbox),
		Debug:       cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to create Dropbox client: %w", err)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, client, server.Options{
		Resolver: &source.Resolver{
			MaxBytes: cfg.MaxUploadBytes,
			Metrics:  metrics,
		},
		DownloadDir: cfg.DownloadDir,
		ReadOnly:    cfg.ReadOnly,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		serverContext.SetMetrics(metrics)
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	mcpSrv, err := newMCPServer(serverContext, cfg.ReadOnly)
	if err != nil {
		return err
	}

	if cfg.ReadOnly {
		logger.Info("starting in read-only mode; write tools are not registered")
	}

	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

// newMCPServer creates the MCP server with every tool registered.
func newMCPServer(sc *server.ServerContext, readOnly bool) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("dropboxmcp", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := dropbox_tools.RegisterDropboxTools(mcpSrv, sc, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register Dropbox tools: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(
	ctx context.Context,
	mcpSrv *mcpserver.MCPServer,
	sc *server.ServerContext,
	cfg *config.Config,
	provider *instrumentation.Provider,
	logger *slog.Logger,
) error {
	health := server.NewHealthChecker(sc, version)

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:      cfg.HTTPAddr,
		AuthToken: cfg.HTTPAuthToken,
		Health:    health,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		started, err := startMetricsServer(gctx, g, metricsServer, metricsStartupTimeout)
		if !started {
			return err
		}
		logger.Info("metrics server started", "addr", metricsServer.BoundAddr())
	}

	g.Go(func() error {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

type readyServer interface {
	StartWithReadySignal(ready chan<- struct{}) error
	Shutdown(ctx context.Context) error
}

// startMetricsServer runs srv in g and waits for its listener. It reports
// false when the group was cancelled first or srv did not come up within
// timeout; in the latter case srv is shut down and its goroutine has exited
// by the time it returns.
func startMetricsServer(gctx context.Context, g *errgroup.Group, srv readyServer, timeout time.Duration) (bool, error) {
	ready := make(chan struct{})
	g.Go(func() error {
		if err := srv.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})

	select {
	case <-ready:
		return true, nil
	case <-gctx.Done():
		return false, g.Wait()
	case <-time.After(timeout):
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = g.Wait()
		return false, fmt.Errorf("metrics server startup timed out after %s", timeout)
	}
}
