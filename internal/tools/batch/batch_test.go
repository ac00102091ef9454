package batch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOptionalStringArray(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr bool
	}{
		{name: "missing", input: nil, want: nil},
		{name: "empty", input: []interface{}{}, want: []string{}},
		{name: "values", input: []interface{}{"https://a", "https://b"}, want: []string{"https://a", "https://b"}},
		{name: "typed string slice", input: []string{"a.pdf"}, want: []string{"a.pdf"}},
		{name: "typed slice with empty item", input: []string{"a.pdf", ""}, wantErr: true},
		{name: "single string rejected", input: "https://a", wantErr: true},
		{name: "non-string item", input: []interface{}{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptionalStringArray(tt.input, "file_urls")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProcessSequential(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		var seen []string
		n, failed := ProcessSequential([]string{"/a", "/b", "/c"}, func(i int, id string) error {
			seen = append(seen, id)
			return nil
		})
		if n != 3 || failed != nil {
			t.Errorf("got n=%d failed=%v, want 3 and nil", n, failed)
		}
		if diff := cmp.Diff([]string{"/a", "/b", "/c"}, seen); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		var calls []int
		n, failed := ProcessSequential([]string{"/a", "/b", "/c"}, func(i int, id string) error {
			calls = append(calls, i)
			if id == "/b" {
				return errors.New("fetch failed")
			}
			return nil
		})

		if n != 1 {
			t.Errorf("succeeded = %d, want 1", n)
		}
		want := &Result{ID: "/b", Status: StatusError, Error: "fetch failed"}
		if diff := cmp.Diff(want, failed); diff != "" {
			t.Errorf("failed result mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]int{0, 1}, calls); diff != "" {
			t.Errorf("third item must not run (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		n, failed := ProcessSequential(nil, func(int, string) error {
			t.Fatal("fn must not be called")
			return nil
		})
		if n != 0 || failed != nil {
			t.Errorf("got n=%d failed=%v", n, failed)
		}
	})
}

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("/docs/a.pdf", errors.New("test error"))

	if result.ID != "/docs/a.pdf" {
		t.Errorf("ID = %s, want /docs/a.pdf", result.ID)
	}
	if result.Status != StatusError {
		t.Errorf("Status = %s, want error", result.Status)
	}
	if result.Error != "test error" {
		t.Errorf("Error = %s, want 'test error'", result.Error)
	}
}
