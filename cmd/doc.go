// Package cmd implements the command-line interface for dropboxmcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server (the default when no subcommand is given)
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - tools: List the MCP tools in a table
package cmd
