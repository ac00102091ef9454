package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrKind      = "kind"
	attrTool      = "tool"
	attrSource    = "source"
	attrDirection = "direction"
)

// Transfer directions for RecordTransferBytes.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Metrics provides methods for recording observability metrics.
// All Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP transport metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Dropbox API metrics
	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram
	transferBytes        metric.Int64Counter

	// Upload source metrics
	sourceReadsTotal metric.Int64Counter
	sourceReadBytes  metric.Int64Histogram

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
	toolErrorsTotal      metric.Int64Counter

	// detailedLabels adds the error kind to Dropbox API metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.apiOperationsTotal, err = meter.Int64Counter(
		"dropbox_api_operations_total",
		metric.WithDescription("Total number of Dropbox API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dropbox_api_operations_total counter: %w", err)
	}

	m.apiOperationDuration, err = meter.Float64Histogram(
		"dropbox_api_operation_duration_seconds",
		metric.WithDescription("Dropbox API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dropbox_api_operation_duration_seconds histogram: %w", err)
	}

	m.transferBytes, err = meter.Int64Counter(
		"dropbox_transfer_bytes_total",
		metric.WithDescription("Bytes uploaded to and downloaded from Dropbox"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dropbox_transfer_bytes_total counter: %w", err)
	}

	m.sourceReadsTotal, err = meter.Int64Counter(
		"upload_source_reads_total",
		metric.WithDescription("Total number of upload content reads by source type"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_source_reads_total counter: %w", err)
	}

	m.sourceReadBytes, err = meter.Int64Histogram(
		"upload_source_read_bytes",
		metric.WithDescription("Size of upload content read from a URL or local file"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(1<<10, 64<<10, 1<<20, 8<<20, 32<<20, 64<<20, 150<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_source_read_bytes histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.toolErrorsTotal, err = meter.Int64Counter(
		"mcp_tool_errors_total",
		metric.WithDescription("Total number of failed MCP tool invocations by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_errors_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDropboxAPIOperation records one Dropbox API call.
//
// Parameters:
//   - operation: endpoint name, folded by NormalizeOperation
//   - status: "success" or "error"
//   - errorKind: classified error kind, only recorded with detailed labels
//   - duration: time taken for the call
func (m *Metrics) RecordDropboxAPIOperation(ctx context.Context, operation, status, errorKind string, duration time.Duration) {
	if m == nil || m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, NormalizeOperation(operation)),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && errorKind != "" {
		attrs = append(attrs, attribute.String(attrKind, errorKind))
	}

	m.apiOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.apiOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTransferBytes adds n bytes to the upload or download counter.
func (m *Metrics) RecordTransferBytes(ctx context.Context, direction string, n int64) {
	if m == nil || m.transferBytes == nil || n <= 0 {
		return
	}
	m.transferBytes.Add(ctx, n, metric.WithAttributes(attribute.String(attrDirection, direction)))
}

// RecordSourceRead records reading upload content from a URL or local file.
// sourceType is "url" or "local".
func (m *Metrics) RecordSourceRead(ctx context.Context, sourceType, status string, n int64) {
	if m == nil || m.sourceReadsTotal == nil || m.sourceReadBytes == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrSource, sourceType),
		attribute.String(attrStatus, status),
	}

	m.sourceReadsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if status == StatusSuccess {
		m.sourceReadBytes.Record(ctx, n, metric.WithAttributes(attribute.String(attrSource, sourceType)))
	}
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolError counts a failed tool invocation by its error kind
// (validation, not_found, conflict, ...).
func (m *Metrics) RecordToolError(ctx context.Context, toolName, kind string) {
	if m == nil || m.toolErrorsTotal == nil {
		return
	}

	m.toolErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrKind, kind),
	))
}
