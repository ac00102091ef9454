package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/source"
)

// Options configures a ServerContext.
type Options struct {
	// Resolver reads upload content; defaults to a Resolver with default limits
	Resolver *source.Resolver

	// DownloadDir receives downloaded files; defaults to os.TempDir()
	DownloadDir string

	// ReadOnly is reported by health checks; tool registration is decided by the caller
	ReadOnly bool

	Logger *slog.Logger
}

// ServerContext holds the dependencies shared by all tool handlers.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	client      dropbox.API
	resolver    *source.Resolver
	downloadDir string
	readOnly    bool
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context around client.
func NewServerContext(ctx context.Context, client dropbox.API, opts Options) (*ServerContext, error) {
	if client == nil {
		return nil, errors.New("dropbox client is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	if opts.Resolver == nil {
		opts.Resolver = &source.Resolver{}
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = os.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		client:      client,
		resolver:    opts.Resolver,
		downloadDir: opts.DownloadDir,
		readOnly:    opts.ReadOnly,
		logger:      opts.Logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Dropbox returns the shared Dropbox client.
func (sc *ServerContext) Dropbox() dropbox.API {
	return sc.client
}

// SourceResolver returns the resolver for upload content.
func (sc *ServerContext) SourceResolver() *source.Resolver {
	return sc.resolver
}

// DownloadDir returns the directory downloads are written to.
func (sc *ServerContext) DownloadDir() string {
	return sc.downloadDir
}

// ReadOnly reports whether the server was started in read-only mode.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SetMetrics sets the metrics recorder used by tool instrumentation.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil if none is configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by tool instrumentation.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil if none is configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
