package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/riglink/pkg/scene"
)

// ReadJSON decodes a JSON scene document from r.
//
// ReadJSON returns an error if the JSON is malformed, the version is
// unknown, a name is invalid, a layer ID repeats, or the selection or a
// binding references a layer the document does not contain.
//
// The returned scene has an empty undo history. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*scene.Scene, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.toScene()
}

// ReadYAML decodes a YAML scene document from r.
func ReadYAML(r io.Reader) (*scene.Scene, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.toScene()
}

// Read decodes a scene in the given format.
func Read(r io.Reader, f Format) (*scene.Scene, error) {
	if f == FormatYAML {
		return ReadYAML(r)
	}
	return ReadJSON(r)
}

// Unmarshal decodes a JSON scene document.
func Unmarshal(data []byte) (*scene.Scene, error) {
	return ReadJSON(bytes.NewReader(data))
}

// Import reads a scene from path, choosing the format from the extension.
func Import(path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatForPath(path))
}
