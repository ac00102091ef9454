package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/server"
)

// stubAPI satisfies dropbox.API; handlers in these tests never call it.
type stubAPI struct{ dropbox.API }

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), stubAPI{}, server.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_NoInstrumentation(t *testing.T) {
	sc := newTestServerContext(t)

	called := false
	wrapped := InstrumentedToolHandlerWithService("test_tool", "", "", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	})

	result, err := wrapped(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_PassesThroughGoError(t *testing.T) {
	sc := newTestServerContext(t)

	expectedErr := errors.New("test error")
	wrapped := InstrumentedToolHandlerWithService("test_tool", "", "", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	})

	_, err := wrapped(context.Background(), callRequest(nil))
	assert.Equal(t, expectedErr, err)
}

type auditLine struct {
	Msg       string `json:"msg"`
	Tool      string `json:"tool"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind"`
	Paths     string `json:"paths"`
	Service   string `json:"service"`
	Operation string `json:"operation"`
}

func TestInstrumentedToolHandlerWithService_RecordsFailureKind(t *testing.T) {
	sc := newTestServerContext(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.AuditLoggingConfig{Enabled: true}))

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter, false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	wrapped := InstrumentedToolHandlerWithService("dropbox_rename_file_folder", instrumentation.ServiceDropbox, instrumentation.OperationMove, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return ErrorResult(Validationf("new_name is invalid")), nil
		})

	result, err := wrapped(context.Background(), callRequest(map[string]interface{}{
		"path_from": "/Private/a.txt",
		"new_name":  "b/c",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	var line auditLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "audit output: %s", buf.String())
	assert.Equal(t, "tool_failed", line.Msg)
	assert.Equal(t, "dropbox_rename_file_folder", line.Tool)
	assert.Equal(t, KindValidation, line.ErrorKind)
	assert.Equal(t, instrumentation.HashPath("/Private/a.txt"), line.Paths)
	assert.Equal(t, instrumentation.OperationMove, line.Operation)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	kinds := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_errors_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				kind, _ := dp.Attributes.Value(attribute.Key("kind"))
				kinds[kind.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{KindValidation: 1}, kinds)
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newTestServerContext(t)

	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), instrumentation.AuditLoggingConfig{Enabled: true}))

	wrapped := InstrumentedToolHandlerWithService("dropbox_search_files_folders", instrumentation.ServiceDropbox, instrumentation.OperationSearch, sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return SuccessResult("", map[string]interface{}{"total_matches": 0})
	})

	_, err := wrapped(context.Background(), callRequest(map[string]interface{}{"query": "report"}))
	require.NoError(t, err)

	var line auditLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tool_executed", line.Msg)
	assert.True(t, line.Success)
	assert.Empty(t, line.Paths)
}

func TestResultError(t *testing.T) {
	kind, err := resultError(ErrorResult(&dropbox.Error{Kind: dropbox.KindConflict, Op: "upload", Err: errors.New("path/conflict/file/")}))
	assert.Equal(t, KindConflict, kind)
	assert.Contains(t, err.Error(), "conflict")

	kind, err = resultError(mcp.NewToolResultError("plain failure"))
	assert.Equal(t, KindInternal, kind)
	assert.Equal(t, "plain failure", err.Error())
}
