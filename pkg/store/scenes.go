package store

import (
	"context"
	"time"

	"github.com/matzehuels/riglink/pkg/cache"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/io"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Scenes loads and saves scenes through a Store.
type Scenes struct {
	Store Store
	now   func() time.Time
}

// NewScenes wraps a backend.
func NewScenes(st Store) *Scenes {
	return &Scenes{Store: st, now: time.Now}
}

// Load decodes the named scene.
func (c *Scenes) Load(ctx context.Context, name string) (*scene.Scene, error) {
	rec, err := c.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return io.Unmarshal(rec.Data)
}

// Exists reports whether a scene is stored under name.
func (c *Scenes) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.Store.Get(ctx, name)
	if errors.Is(err, errors.ErrCodeSceneNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create stores a new empty scene. It fails with DUPLICATE if the name is
// taken.
func (c *Scenes) Create(ctx context.Context, cfg scene.Config) (*scene.Scene, error) {
	s, err := scene.New(cfg)
	if err != nil {
		return nil, err
	}
	exists, err := c.Exists(ctx, s.Name())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New(errors.ErrCodeDuplicate, "scene %q already exists", s.Name())
	}
	if _, err := c.Save(ctx, s, ""); err != nil {
		return nil, err
	}
	return s, nil
}

// Save encodes s and stores it. A non-empty step name pushes the previous
// encoding onto the record's undo history. Saving an unchanged scene is a
// no-op.
func (c *Scenes) Save(ctx context.Context, s *scene.Scene, step string) (*Record, error) {
	data, err := io.Marshal(s)
	if err != nil {
		return nil, err
	}
	etag := cache.Hash(data)

	prev, err := c.Store.Get(ctx, s.Name())
	switch {
	case errors.Is(err, errors.ErrCodeSceneNotFound):
		prev = nil
	case err != nil:
		return nil, err
	case prev.ETag == etag:
		return prev, nil
	}

	rec := &Record{Name: s.Name(), Data: data, ETag: etag, UpdatedAt: c.now().UTC()}
	if prev != nil {
		rec.History = prev.History
		if step != "" {
			rec.History = append(rec.History, Step{Name: step, Data: prev.Data})
			if len(rec.History) > MaxHistory {
				rec.History = rec.History[len(rec.History)-MaxHistory:]
			}
		}
	}
	if err := c.Store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Undo restores the encoding saved before the most recent named step and
// returns the restored scene and the step name.
func (c *Scenes) Undo(ctx context.Context, name string) (*scene.Scene, string, error) {
	rec, err := c.Store.Get(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if len(rec.History) == 0 {
		return nil, "", errors.New(errors.ErrCodeNotFound, "nothing to undo in scene %q", name)
	}
	last := rec.History[len(rec.History)-1]
	s, err := io.Unmarshal(last.Data)
	if err != nil {
		return nil, "", err
	}
	// Re-encode so the ETag matches what Save computes for the same scene.
	data, err := io.Marshal(s)
	if err != nil {
		return nil, "", err
	}

	next := &Record{
		Name:      rec.Name,
		Data:      data,
		ETag:      cache.Hash(data),
		UpdatedAt: c.now().UTC(),
		History:   rec.History[:len(rec.History)-1],
	}
	if err := c.Store.Put(ctx, next); err != nil {
		return nil, "", err
	}
	return s, last.Name, nil
}

// Steps returns the names of the undoable steps, oldest first.
func (c *Scenes) Steps(ctx context.Context, name string) ([]string, error) {
	rec, err := c.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rec.History))
	for i, s := range rec.History {
		out[i] = s.Name
	}
	return out, nil
}
