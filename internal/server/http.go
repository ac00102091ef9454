package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/dropboxmcp/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable HTTP transport.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr string

	// AuthToken, when set, must be presented as "Authorization: Bearer <token>"
	// on the MCP endpoint. Health endpoints stay open.
	AuthToken string

	Health  *HealthChecker
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// HTTPServer serves an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	config    HTTPServerConfig

	mu         sync.Mutex
	httpServer *http.Server
}

// NewHTTPServer creates a new HTTP transport for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, errors.New("mcp server is required")
	}
	if config.Addr == "" {
		return nil, errors.New("listen address is required")
	}
	if config.Health == nil {
		config.Health = NewHealthChecker(nil, "")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &HTTPServer{mcpServer: mcpServer, config: config}, nil
}

// Handler returns the complete HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	)

	var mcpHandler http.Handler = streamable
	if s.config.AuthToken != "" {
		mcpHandler = bearerAuth(s.config.AuthToken, mcpHandler)
	}
	mcpHandler = s.config.Health.trackInFlight(mcpHandler)
	mux.Handle(MCPEndpoint, otelhttp.NewHandler(mcpHandler, "mcp"))

	s.config.Health.RegisterHealthEndpoints(mux)

	return recordRequests(s.config.Metrics, mux)
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *HTTPServer) Serve(ln net.Listener) error {
	// No write timeout: streamable HTTP keeps response streams open.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.config.Logger.Info("starting MCP HTTP server",
		"addr", ln.Addr().String(),
		"endpoint", MCPEndpoint,
		"auth", s.config.AuthToken != "")
	return srv.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	s.config.Health.SetReady(false)
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func bearerAuth(token string, next http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(strings.TrimSpace(r.Header.Get("Authorization")))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="dropboxmcp"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recordRequests records http_requests_total and request duration per
// request. Paths outside the known endpoints are collapsed to "other".
func recordRequests(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, metricPath(r.URL.Path), m.Code, m.Duration)
	})
}

func metricPath(p string) string {
	switch p {
	case MCPEndpoint, "/healthz", "/readyz", "/healthz/detailed":
		return p
	}
	return "other"
}
