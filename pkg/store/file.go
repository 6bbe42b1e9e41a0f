package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/riglink/pkg/errors"
)

// FileStore keeps one JSON file per scene in a directory. The scene
// document is embedded as JSON so the files stay readable.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

type fileStep struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

type fileRecord struct {
	Name      string          `json:"name"`
	ETag      string          `json:"etag"`
	UpdatedAt time.Time       `json:"updated_at"`
	Data      json.RawMessage `json:"data"`
	History   []fileStep      `json:"history,omitempty"`
}

// NewFileStore creates a file-based store.
// If baseDir is empty, defaults to ~/.config/riglink/scenes/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "riglink", "scenes")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create scene dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) scenePath(name string) string {
	return filepath.Join(s.baseDir, name+".json")
}

func (s *FileStore) Get(ctx context.Context, name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.scenePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("read scene file: %w", err)
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse scene file %s", name)
	}
	rec := &Record{Name: fr.Name, Data: fr.Data, ETag: fr.ETag, UpdatedAt: fr.UpdatedAt}
	for _, st := range fr.History {
		rec.History = append(rec.History, Step{Name: st.Name, Data: st.Data})
	}
	return rec, nil
}

func (s *FileStore) Put(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fr := fileRecord{Name: rec.Name, ETag: rec.ETag, UpdatedAt: rec.UpdatedAt, Data: rec.Data}
	for _, st := range rec.History {
		fr.History = append(fr.History, fileStep{Name: st.Name, Data: st.Data})
	}
	data, err := json.MarshalIndent(fr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.baseDir, ".scene-*")
	if err != nil {
		return fmt.Errorf("write scene file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write scene file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write scene file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.scenePath(rec.Name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write scene file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.scenePath(name)); err != nil {
		if os.IsNotExist(err) {
			return notFound(name)
		}
		return fmt.Errorf("remove scene file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read scene dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		n := entry.Name()
		if entry.IsDir() || strings.HasPrefix(n, ".") || filepath.Ext(n) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(n, ".json"))
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for scene files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
