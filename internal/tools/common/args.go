package common

import (
	"math"
)

// pathArgs are the argument names that carry remote or local paths. Their
// values are attached to audit records.
var pathArgs = []string{
	"path",
	"path_from",
	"path_to",
	"folder_path",
	"parent_path",
	"dropbox_folder_path",
	"file_path",
}

// PathsFromArgs returns the path-like arguments of a tool call in a stable
// order.
func PathsFromArgs(args map[string]interface{}) []string {
	var paths []string
	for _, key := range pathArgs {
		if v, ok := args[key].(string); ok && v != "" {
			paths = append(paths, v)
		}
	}
	return paths
}

// RequiredString returns the non-empty string argument key.
func RequiredString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", Validationf("%s is required", key)
	}
	return v, nil
}

// RequiredStringAllowEmpty returns the string argument key, which must be
// present but may be empty.
func RequiredStringAllowEmpty(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok {
		return "", Validationf("%s is required", key)
	}
	return v, nil
}

// OptionalString returns the string argument key, or "" when absent.
func OptionalString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// OptionalBool returns the boolean argument key, or def when absent.
func OptionalBool(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// OptionalUint returns the numeric argument key as a non-negative integer.
// Absent or non-positive values yield def; fractions are rejected.
func OptionalUint(args map[string]interface{}, key string, def uint64) (uint64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, Validationf("%s must be a number", key)
	}
	if f <= 0 {
		return def, nil
	}
	if f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, Validationf("%s must be a whole number up to %d", key, uint64(math.MaxUint32))
	}
	return uint64(f), nil
}
