package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds scene and layer names.
const maxNameLength = 256

// ValidateSceneName validates a scene name for safety and correctness.
// Scene names become file names and storage keys, so anything that could be
// used for path traversal is rejected:
//   - No empty names
//   - No control characters
//   - No path separators or parent-directory sequences
//   - Maximum length of 256 characters
func ValidateSceneName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "scene name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "scene name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "scene name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "scene name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateLayerName validates a layer name. Layer names are embedded in
// formula text inside double quotes, so quotes and backslashes are refused.
func ValidateLayerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "layer name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "layer name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "layer name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "\"\\") {
		return New(ErrCodeInvalidName, "layer name cannot contain quotes or backslashes")
	}
	return nil
}
