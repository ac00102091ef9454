// Package server provides the shared server context and the HTTP side of the
// dropboxmcp server.
//
// # Key Components
//
// ServerContext owns the process-wide Dropbox client, the upload source
// resolver, the download directory and the optional instrumentation
// (metrics and audit logging) used by tool handlers.
//
// HTTPServer exposes an MCP server over the streamable HTTP transport at
// /mcp, with optional static bearer token authentication, request metrics and
// OpenTelemetry spans. The Kubernetes style health endpoints are served on the
// same listener:
//   - /healthz: liveness
//   - /readyz: readiness, fails once shutdown starts
//   - /healthz/detailed: uptime, mode and in-flight request count
//
// MetricsServer serves Prometheus metrics on a dedicated port so operational
// data is not exposed on the MCP listener.
package server
