package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/logging"
	"github.com/teemow/dropboxmcp/internal/server"
)

// ToolHandler is the signature of an MCP tool handler. It is an alias so
// wrapped handlers can be passed straight to AddTool.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandlerWithService wraps a tool handler with a span, metrics
// and audit logging, and records the remote service and operation the tool
// maps to.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", svc, op, sc, handler))
//
// Failure payloads produced by ErrorResult are counted as errors with their
// kind; Go errors returned by handler are counted with kind "internal".
func InstrumentedToolHandlerWithService(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		paths := PathsFromArgs(args)

		attrs := instrumentation.NewSpanAttributeBuilder().WithReadOnly(sc.ReadOnly())
		if serviceName != "" {
			attrs.WithService(serviceName).WithOperation(operation)
		}
		if len(paths) > 0 {
			attrs.WithPath(paths[0])
		}
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithService(serviceName, operation).
			WithPaths(paths...)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err, KindInternal)
			instrumentation.SetSpanError(span, err)
			metrics.RecordToolError(ctx, toolName, KindInternal)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			kind, failure := resultError(result)
			invocation.CompleteWithError(failure, kind)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrErrorKind, kind))
			instrumentation.SetSpanError(span, failure)
			metrics.RecordToolError(ctx, toolName, kind)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(ctx, invocation)

		sc.Logger().DebugContext(ctx, "tool invocation finished",
			logging.Tool(toolName),
			logging.Service(serviceName),
			logging.Status(status),
			logging.InvocationID(invocation.ID))

		return result, err
	}
}

// resultError recovers the kind and message of an error result. Results not
// built by ErrorResult are reported as internal.
func resultError(result *mcp.CallToolResult) (string, error) {
	var text string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text = tc.Text
			break
		}
	}

	var te ToolError
	if err := json.Unmarshal([]byte(text), &te); err == nil && te.Kind != "" {
		return te.Kind, errors.New(te.Error)
	}
	if text == "" {
		text = "tool returned an error result"
	}
	return KindInternal, errors.New(text)
}
