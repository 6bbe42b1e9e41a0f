package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/riglink/pkg/scene"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath returns the format implied by a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteJSON encodes a scene as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(s *scene.Scene, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromScene(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes a scene as YAML and writes it to w.
func WriteYAML(s *scene.Scene, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromScene(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Write encodes a scene in the given format.
func Write(s *scene.Scene, w io.Writer, f Format) error {
	if f == FormatYAML {
		return WriteYAML(s, w)
	}
	return WriteJSON(s, w)
}

// Marshal returns the compact JSON encoding of a scene.
func Marshal(s *scene.Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(fromScene(s)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Export writes a scene to path, choosing the format from the extension.
func Export(s *scene.Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f, FormatForPath(path))
}
