package util

import (
	"reflect"
	"testing"
)

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePhrase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normal",
			input: "my boss",
			want:  "my boss",
		},
		{
			name:  "mixed case and padding",
			input: "  My  Boss ",
			want:  "my boss",
		},
		{
			name:  "tabs and newlines collapse",
			input: "meine\tMutter\n",
			want:  "meine mutter",
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhrase(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected phrase: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Work", "  side project ", "work", "", "  "})
	want := []string{"work", "side-project"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tags: got %v, want %v", got, want)
	}
}
