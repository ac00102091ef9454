package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/dropboxmcp/internal/instrumentation"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`

func newTestHTTPServer(t *testing.T, token string) *httptest.Server {
	t.Helper()

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)

	mcpSrv := mcpserver.NewMCPServer("dropboxmcp-test", "0.0.0", mcpserver.WithToolCapabilities(true))
	srv, err := NewHTTPServer(mcpSrv, HTTPServerConfig{
		Addr:      ":0",
		AuthToken: token,
		Metrics:   metrics,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postInitialize(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+MCPEndpoint, strings.NewReader(initializeRequest))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestNewHTTPServer_Validation(t *testing.T) {
	_, err := NewHTTPServer(nil, HTTPServerConfig{Addr: ":0"})
	assert.Error(t, err)

	_, err = NewHTTPServer(mcpserver.NewMCPServer("x", "0"), HTTPServerConfig{})
	assert.Error(t, err)
}

func TestHTTPServer_HealthEndpoints(t *testing.T) {
	ts := newTestHTTPServer(t, "secret")

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestHTTPServer_BearerAuth(t *testing.T) {
	ts := newTestHTTPServer(t, "secret")

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "missing token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", token: "nope", wantStatus: http.StatusUnauthorized},
		{name: "valid token", token: "secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postInitialize(t, ts.URL, tt.token)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestHTTPServer_NoAuthConfigured(t *testing.T) {
	ts := newTestHTTPServer(t, "")
	resp := postInitialize(t, ts.URL, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_ShutdownWithoutStart(t *testing.T) {
	h := NewHealthChecker(nil, "")
	srv, err := NewHTTPServer(mcpserver.NewMCPServer("x", "0"), HTTPServerConfig{Addr: ":0", Health: h})
	require.NoError(t, err)

	assert.NoError(t, srv.Shutdown(context.Background()))
	assert.False(t, h.IsReady(), "shutdown should mark the server not ready")
}

func TestMetricPath(t *testing.T) {
	tests := map[string]string{
		"/mcp":              "/mcp",
		"/healthz":          "/healthz",
		"/healthz/detailed": "/healthz/detailed",
		"/admin/secret":     "other",
		"/":                 "other",
	}
	for in, want := range tests {
		if got := metricPath(in); got != want {
			t.Errorf("metricPath(%q) = %q, want %q", in, got, want)
		}
	}
}
