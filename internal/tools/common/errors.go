package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/remotepath"
	"github.com/teemow/dropboxmcp/internal/source"
	"github.com/teemow/dropboxmcp/internal/tools/batch"
)

// Error kinds reported in failure payloads.
const (
	KindValidation  = "validation"
	KindNotFound    = "not_found"
	KindConflict    = "conflict"
	KindInvalidPath = "invalid_path"
	KindRemote      = "remote"
	KindSource      = "source"
	KindInternal    = "internal"
)

// ToolError is the failure payload returned by every tool.
type ToolError struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`

	// Results is only set by batch tools and holds the failing item.
	Results []batch.Result `json:"results,omitempty"`
}

// ValidationError reports bad tool input detected before any remote call.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Validationf returns a *ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// TranslateError maps err onto the failure payload.
func TranslateError(err error) ToolError {
	return ToolError{
		Status: StatusError,
		Kind:   ErrorKind(err),
		Error:  err.Error(),
	}
}

// ErrorKind returns the failure payload kind for err.
func ErrorKind(err error) string {
	var (
		validation *ValidationError
		remote     *dropbox.Error
	)
	switch {
	case errors.As(err, &validation), errors.Is(err, remotepath.ErrInvalidName):
		return KindValidation
	case errors.As(err, &remote):
		switch remote.Kind {
		case dropbox.KindNotFound:
			return KindNotFound
		case dropbox.KindConflict:
			return KindConflict
		case dropbox.KindInvalidPath:
			return KindInvalidPath
		}
		return KindRemote
	case source.Error.Has(err):
		return KindSource
	}
	return KindInternal
}

// ErrorResult returns err as an MCP error result carrying a ToolError.
func ErrorResult(err error) *mcp.CallToolResult {
	return toolErrorResult(TranslateError(err))
}

// BatchErrorResult is ErrorResult for a batch that stopped at failed.
func BatchErrorResult(err error, failed batch.Result) *mcp.CallToolResult {
	te := TranslateError(err)
	te.Results = []batch.Result{failed}
	return toolErrorResult(te)
}

func toolErrorResult(te ToolError) *mcp.CallToolResult {
	b, err := json.MarshalIndent(te, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(te.Error)
	}
	return mcp.NewToolResultError(string(b))
}
