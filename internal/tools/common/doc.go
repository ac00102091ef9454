// Package common provides the pieces shared by all tool packages: argument
// helpers, the unified success and failure payloads, the error translator and
// the instrumentation wrapper for tool handlers.
//
// Every failure is returned as an MCP error result whose text is a JSON
// ToolError:
//
//	{"status": "error", "kind": "not_found", "error": "..."}
//
// The kind is derived by TranslateError from the error chain: validation
// errors, classified Dropbox errors, content source errors, and everything
// else as internal.
package common
