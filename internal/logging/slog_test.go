package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("move_v2"), KeyOperation, "move_v2"},
		{"service", Service("dropbox"), KeyService, "dropbox"},
		{"tool", Tool("dropbox_restore_file"), KeyTool, "dropbox_restore_file"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"error kind", ErrorKind("not_found"), KeyErrorKind, "not_found"},
		{"invocation id", InvocationID("abc"), KeyInvocationID, "abc"},
		{"error", Err(errors.New("boom")), KeyError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErrNilIsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("done", Err(nil))

	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error should not be logged: %s", buf.String())
	}
}

func TestPathIsHashed(t *testing.T) {
	attr := Path("/Taxes/2024/return.pdf")
	if attr.Key != KeyPathHash {
		t.Errorf("key = %q, want %q", attr.Key, KeyPathHash)
	}
	if strings.Contains(attr.Value.String(), "Taxes") {
		t.Errorf("path leaked into log attribute: %q", attr.Value.String())
	}
	if Path("/Taxes/2024/return.pdf").Value.String() != attr.Value.String() {
		t.Error("path hash not stable")
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q", got)
	}

	got := AnonymizeEmail("jane@example.com")
	if !strings.HasPrefix(got, "user:") || len(got) != len("user:")+16 {
		t.Errorf("unexpected format %q", got)
	}
	if got == AnonymizeEmail("john@example.com") {
		t.Error("different emails produced the same hash")
	}
	if UserHash("jane@example.com").Value.String() != got {
		t.Error("UserHash does not match AnonymizeEmail")
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "<empty>"},
		{"sl.ABCDEF", "[token:9 chars]"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.token); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, FormatJSON, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %s", buf.String())
	}

	New(&buf, FormatJSON, true).Debug("shown", Tool("t"))
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["tool"] != "t" {
		t.Errorf("tool = %v", entry["tool"])
	}

	buf.Reset()
	New(&buf, Format("yaml"), false).Info("text fallback")
	if !strings.Contains(buf.String(), "msg=\"text fallback\"") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithService(WithOperation(WithTool(logger, "dropbox_search_files_folders"), "search_v2"), "dropbox").Info("x")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{KeyTool: "dropbox_search_files_folders", KeyOperation: "search_v2", KeyService: "dropbox"} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
}
