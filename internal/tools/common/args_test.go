package common

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathsFromArgs(t *testing.T) {
	args := map[string]interface{}{
		"path_to":   "/x/y",
		"path_from": "/a/b/c.txt",
		"content":   "hello",
		"path":      "",
		"file_path": 42,
	}

	want := []string{"/a/b/c.txt", "/x/y"}
	if diff := cmp.Diff(want, PathsFromArgs(args)); diff != "" {
		t.Errorf("PathsFromArgs() mismatch (-want +got):\n%s", diff)
	}
}

func TestRequiredString(t *testing.T) {
	args := map[string]interface{}{"name": "a.txt", "empty": "", "num": 1.0}

	if v, err := RequiredString(args, "name"); err != nil || v != "a.txt" {
		t.Errorf("RequiredString(name) = %q, %v", v, err)
	}

	for _, key := range []string{"empty", "num", "missing"} {
		_, err := RequiredString(args, key)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("RequiredString(%s) error = %v, want ValidationError", key, err)
		}
	}
}

func TestRequiredStringAllowEmpty(t *testing.T) {
	args := map[string]interface{}{"path": ""}

	if v, err := RequiredStringAllowEmpty(args, "path"); err != nil || v != "" {
		t.Errorf("got %q, %v; want empty root path", v, err)
	}
	if _, err := RequiredStringAllowEmpty(args, "missing"); err == nil {
		t.Error("expected error for missing argument")
	}
}

func TestOptionalBool(t *testing.T) {
	args := map[string]interface{}{"yes": true, "no": false, "str": "true"}

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{"yes", false, true},
		{"no", true, false},
		{"str", false, false},
		{"missing", true, true},
	}
	for _, tt := range tests {
		if got := OptionalBool(args, tt.key, tt.def); got != tt.want {
			t.Errorf("OptionalBool(%s, %v) = %v, want %v", tt.key, tt.def, got, tt.want)
		}
	}
}

func TestOptionalUint(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{name: "missing", value: nil, want: 10},
		{name: "set", value: 25.0, want: 25},
		{name: "zero uses default", value: 0.0, want: 10},
		{name: "negative uses default", value: -3.0, want: 10},
		{name: "fraction", value: 2.5, wantErr: true},
		{name: "string", value: "5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.value != nil {
				args["limit"] = tt.value
			}
			got, err := OptionalUint(args, "limit", 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
