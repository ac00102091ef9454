package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Payload status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SuccessResult returns a success payload made of status, message and
// fields. fields may be nil.
func SuccessResult(message string, fields map[string]interface{}) (*mcp.CallToolResult, error) {
	payload := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["status"] = StatusSuccess
	if message != "" {
		payload["message"] = message
	}
	return JSONResult(payload)
}

// JSONResult returns v as indented JSON text.
func JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
