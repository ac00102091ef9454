// Package dropbox_tools provides the MCP tools for a Dropbox account.
//
// Tools cover files (create, append, download, delete, restore, revisions,
// search), folders (create, list, move, rename), share links and uploads from
// a URL or a local path, individually or as a batch.
//
// Every tool normalizes its path arguments, validates input before any remote
// call, and reports failures through the shared failure payload. In read-only
// mode only the list, revisions, search and download tools are registered.
package dropbox_tools
