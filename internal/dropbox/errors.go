package dropbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
)

// ErrMissingToken is returned by NewClient without an access token.
var ErrMissingToken = errors.New("dropbox access token is required")

var errNoExistingLink = errors.New("link reported as existing but not listed")

// ErrorKind classifies a failed Dropbox API call.
type ErrorKind string

const (
	// KindNotFound means nothing exists at the path.
	KindNotFound ErrorKind = "not_found"

	// KindConflict means the target already exists or the write conflicted.
	KindConflict ErrorKind = "conflict"

	// KindInvalidPath means the path itself was rejected.
	KindInvalidPath ErrorKind = "invalid_path"

	// KindOther covers every other failure (auth, rate limits, transport, ...).
	KindOther ErrorKind = "other"
)

// Error is returned by every Client method that fails.
type Error struct {
	Kind ErrorKind
	// Op is the endpoint that failed, e.g. "move_v2"
	Op string
	// Path is the primary path of the call, if any
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dropbox %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dropbox %s failed for %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *Error {
	return &Error{
		Kind: classify(err),
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf returns the kind of err, or KindOther if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsNotFound reports whether err means the path does not exist.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Tokens of the API error summary, e.g. "path/not_found/.." or
// "to/conflict/folder/..", checked in order.
var summaryKinds = []struct {
	tokens []string
	kind   ErrorKind
}{
	{[]string{"not_found"}, KindNotFound},
	{[]string{"conflict", "already_exists"}, KindConflict},
	{[]string{"malformed_path", "disallowed_name", "invalid_path"}, KindInvalidPath},
}

func classify(err error) ErrorKind {
	var download files.DownloadAPIError
	if errors.As(err, &download) && download.EndpointError != nil && download.EndpointError.Path != nil {
		switch download.EndpointError.Path.Tag {
		case files.LookupErrorNotFound:
			return KindNotFound
		case files.LookupErrorMalformedPath:
			return KindInvalidPath
		}
	}

	summary := err.Error()
	for _, sk := range summaryKinds {
		for _, token := range sk.tokens {
			if strings.Contains(summary, token) {
				return sk.kind
			}
		}
	}
	return KindOther
}
