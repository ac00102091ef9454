// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the dropboxmcp server.
//
// # Metrics
//
// HTTP transport:
//   - http_requests_total: requests by method, path and status
//   - http_request_duration_seconds: request durations
//
// Dropbox API:
//   - dropbox_api_operations_total: calls by endpoint and status
//   - dropbox_api_operation_duration_seconds: call durations
//   - dropbox_transfer_bytes_total: bytes uploaded and downloaded
//
// Upload sources:
//   - upload_source_reads_total: URL fetches and local reads by status
//   - upload_source_read_bytes: size of content read
//
// MCP tools:
//   - mcp_tool_invocations_total: invocations by tool and status
//   - mcp_tool_duration_seconds: tool durations
//   - mcp_tool_errors_total: failures by tool and error kind
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for each
// Dropbox API call (dropbox.<endpoint>). Remote paths are recorded only as
// HashPath values.
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: dropboxmcp)
//   - METRICS_DETAILED_LABELS
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII, AUDIT_LOGGING_LEVEL
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordDropboxAPIOperation(ctx, instrumentation.OperationUpload, "success", "", time.Since(start))
//	metrics.RecordToolInvocation(ctx, "dropbox_upload_file", "success", time.Since(start))
package instrumentation
