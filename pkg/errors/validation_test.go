package errors

import (
	"strings"
	"testing"
)

func TestValidateSceneName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "intro", false},
		{"valid with space", "Main Comp", false},
		{"valid with dash", "shot-010", false},
		{"valid with dot", "shot.v2", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"path traversal", "foo..bar", true},
		{"slash", "foo/bar", true},
		{"backslash", "foo\\bar", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSceneName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSceneName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateSceneName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidateLayerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid controller", "Controller 2", false},
		{"valid with slash", "BG/plate", false},
		{"valid unicode", "Ébauche", false},

		{"empty", "", true},
		{"double quote", `say "hi"`, true},
		{"backslash", `a\b`, true},
		{"tab", "a\tb", true},
		{"too long", strings.Repeat("x", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLayerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
