// Package batch provides helpers for tools that act on several items in one
// invocation.
//
// This package includes helpers for:
//   - Parsing parameters that accept a single value or an array
//   - Parsing optional array parameters
//   - Running items strictly in order, stopping at the first failure
package batch
