package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const (
	testToolUpload = "dropbox_upload_file"
	testToolMove   = "dropbox_move_file_folder"
	testPath       = "/Private/medical-2024.pdf"
)

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolUpload)

	if ti.Tool != testToolUpload {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolUpload)
	}
	if _, err := uuid.Parse(ti.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", ti.ID, err)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q", ti.Status())
	}
}

func TestToolInvocation_UniqueIDs(t *testing.T) {
	a := NewToolInvocation(testToolMove)
	b := NewToolInvocation(testToolMove)
	if a.ID == b.ID {
		t.Errorf("expected distinct invocation IDs, both %q", a.ID)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolMove).CompleteWithError(errors.New("to/conflict/folder/"), "conflict")

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "to/conflict/folder/" {
		t.Errorf("Error = %q", ti.Error)
	}
	if ti.ErrorKind != "conflict" {
		t.Errorf("ErrorKind = %q", ti.ErrorKind)
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q", ti.Status())
	}
}

func TestToolInvocation_WithPathsSkipsEmpty(t *testing.T) {
	ti := NewToolInvocation(testToolMove).WithPaths("/a/b.txt", "", "/x")
	if len(ti.Paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", ti.Paths)
	}
}

func TestToolInvocation_LogAttrsHashPaths(t *testing.T) {
	ti := NewToolInvocation(testToolUpload).
		WithService(ServiceDropbox, OperationUpload).
		WithPaths(testPath).
		CompleteSuccess()

	attrs := attrMap(ti.LogAttrs())
	if attrs["paths"] != HashPath(testPath) {
		t.Errorf("paths = %q, want hashed %q", attrs["paths"], HashPath(testPath))
	}
	if attrs["service"] != ServiceDropbox || attrs["operation"] != OperationUpload {
		t.Errorf("unexpected service/operation %q/%q", attrs["service"], attrs["operation"])
	}

	audit := attrMap(ti.LogAuditAttrs())
	if audit["paths"] != testPath {
		t.Errorf("audit paths = %q, want %q", audit["paths"], testPath)
	}
}

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name       string
		config     AuditLoggingConfig
		success    bool
		wantOutput bool
		wantMsg    string
		wantLevel  string
		wantRaw    bool
	}{
		{
			name:       "success hashed",
			config:     AuditLoggingConfig{Enabled: true},
			success:    true,
			wantOutput: true,
			wantMsg:    "tool_executed",
			wantLevel:  "INFO",
		},
		{
			name:       "failure logged at warn",
			config:     AuditLoggingConfig{Enabled: true, LogLevel: "debug"},
			success:    false,
			wantOutput: true,
			wantMsg:    "tool_failed",
			wantLevel:  "WARN",
		},
		{
			name:       "include PII",
			config:     AuditLoggingConfig{Enabled: true, IncludePII: true},
			success:    true,
			wantOutput: true,
			wantMsg:    "tool_executed",
			wantLevel:  "INFO",
			wantRaw:    true,
		},
		{
			name:       "disabled",
			config:     AuditLoggingConfig{Enabled: false},
			success:    true,
			wantOutput: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			al := NewAuditLoggerWithConfig(logger, tt.config)

			ti := NewToolInvocation(testToolUpload).WithPaths(testPath)
			if tt.success {
				ti.CompleteSuccess()
			} else {
				ti.CompleteWithError(errors.New("boom"), "remote")
			}
			al.LogToolInvocation(context.Background(), ti)

			if !tt.wantOutput {
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %s", buf.String())
				}
				return
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid log line %q: %v", buf.String(), err)
			}
			if entry["msg"] != tt.wantMsg {
				t.Errorf("msg = %v, want %s", entry["msg"], tt.wantMsg)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["invocation_id"] != ti.ID {
				t.Errorf("invocation_id = %v, want %s", entry["invocation_id"], ti.ID)
			}
			rawLogged := strings.Contains(buf.String(), testPath)
			if rawLogged != tt.wantRaw {
				t.Errorf("raw path logged = %v, want %v", rawLogged, tt.wantRaw)
			}
		})
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogToolInvocation(context.Background(), NewToolInvocation("x").CompleteSuccess())
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation("test").WithSpanContext(context.Background())

	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("expected empty trace context, got %q/%q", ti.TraceID, ti.SpanID)
	}
}
