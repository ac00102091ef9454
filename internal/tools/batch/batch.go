package batch

import (
	"fmt"
)

// StatusError marks a failed item.
const StatusError = "error"

// Result represents the result of a single item in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ParseOptionalStringArray parses an optional array of non-empty strings.
// A missing parameter yields an empty slice.
func ParseOptionalStringArray(param interface{}, paramName string) ([]string, error) {
	switch v := param.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return stringItems(v, paramName)
	case []string:
		return stringItems(toInterfaces(v), paramName)
	default:
		return nil, fmt.Errorf("%s must be an array of strings", paramName)
	}
}

func stringItems(v []interface{}, paramName string) ([]string, error) {
	result := make([]string, 0, len(v))
	for i, item := range v {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
		}
		if str == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		result = append(result, str)
	}
	return result, nil
}

func toInterfaces(v []string) []interface{} {
	out := make([]interface{}, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}

// ProcessSequential runs fn on each item in order and stops at the first
// failure. It returns how many items succeeded and, if an item failed, its
// error Result. Items after the failing one are not attempted.
func ProcessSequential(ids []string, fn func(i int, id string) error) (int, *Result) {
	for i, id := range ids {
		if err := fn(i, id); err != nil {
			failed := NewErrorResult(id, err)
			return i, &failed
		}
	}
	return len(ids), nil
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
