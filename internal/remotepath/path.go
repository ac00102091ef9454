package remotepath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Separator is the path delimiter used by the remote API.
const Separator = "/"

// TextExtension is appended to text files created by the tools.
const TextExtension = ".txt"

// ErrInvalidName is returned by ValidateName for names that cannot be used as
// a single path segment.
var ErrInvalidName = errors.New("invalid name")

var allowedName = regexp.MustCompile(`^[A-Za-z0-9_.\- ]+$`)

// FilePath joins folder and name into an absolute file path. If requiredExt is
// non-empty it is appended to name unless name already ends with it, so the
// call is idempotent with respect to the extension.
func FilePath(name, folder, requiredExt string) string {
	if requiredExt != "" && !strings.HasSuffix(name, requiredExt) {
		name += requiredExt
	}
	if folder == "" {
		return Separator + name
	}
	if !strings.HasSuffix(folder, Separator) {
		folder += Separator
	}
	return folder + name
}

// Base returns the last segment of p. Trailing separators are ignored.
func Base(p string) string {
	p = strings.TrimRight(p, Separator)
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Dir returns everything before the last segment of p, without a trailing
// separator. The root is returned as "".
func Dir(p string) string {
	p = strings.TrimRight(p, Separator)
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[:i]
	}
	return ""
}

// IntoFolder returns the path src would have after being moved into the
// folder destFolder.
func IntoFolder(src, destFolder string) string {
	return strings.TrimRight(destFolder, Separator) + Separator + Base(src)
}

// Join places name directly inside folder. Trailing separators on folder are
// dropped, so "" and "/" both yield "/name".
func Join(folder, name string) string {
	return strings.TrimRight(folder, Separator) + Separator + name
}

// ReplaceBase swaps the last segment of p for newName.
func ReplaceBase(p, newName string) string {
	return Dir(p) + Separator + newName
}

// ValidateName checks that name is usable as a single path segment: not
// blank, no separators of either kind, and only letters, digits, underscore,
// dot, dash and space.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	case !allowedName.MatchString(name):
		return fmt.Errorf("%w: %q may only contain letters, digits, spaces, '_', '-' and '.'", ErrInvalidName, name)
	}
	return nil
}
