package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// # Privacy Considerations
//
// Paths name the user's files and may contain personal data. LogAttrs
// replaces them with HashPath values; only LogAuditAttrs records them as-is.
type ToolInvocation struct {
	// ID uniquely identifies this invocation across log lines.
	ID string

	// Tool name
	Tool string

	// ServiceName and Operation describe the remote work done for the tool.
	ServiceName string
	Operation   string

	// Paths are the remote paths named by the tool arguments.
	Paths []string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	ErrorKind string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with paths hashed.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	hashed := make([]string, len(ti.Paths))
	for i, p := range ti.Paths {
		hashed[i] = HashPath(p)
	}
	return ti.attrs(hashed)
}

// LogAuditAttrs returns slog attributes with paths in the clear.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	return ti.attrs(ti.Paths)
}

func (ti *ToolInvocation) attrs(paths []string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.ID),
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.ServiceName != "" {
		attrs = append(attrs, slog.String("service", ti.ServiceName))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if len(paths) > 0 {
		attrs = append(attrs, slog.String("paths", strings.Join(paths, ",")))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// NewToolInvocation creates a ToolInvocation with a fresh ID and the clock
// started. Call Complete when the tool finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithService sets the remote service and operation.
func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithPaths records the remote paths the invocation targets. Empty values
// are skipped.
func (ti *ToolInvocation) WithPaths(paths ...string) *ToolInvocation {
	for _, p := range paths {
		if p != "" {
			ti.Paths = append(ti.Paths, p)
		}
	}
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete stops the clock and records the outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed. kind is the classified
// error kind reported to the caller.
func (ti *ToolInvocation) CompleteWithError(err error, kind string) *ToolInvocation {
	ti.ErrorKind = kind
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger writes one structured log line per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		level:      parseLevel(config.LogLevel),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LogToolInvocation logs ti at the configured level when it succeeded and at
// warn level (at least) when it failed. Paths are hashed unless IncludePII is
// set.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	if ti.Success {
		al.logger.LogAttrs(ctx, al.level, "tool_executed", attrs...)
		return
	}
	al.logger.LogAttrs(ctx, max(al.level, slog.LevelWarn), "tool_failed", attrs...)
}
