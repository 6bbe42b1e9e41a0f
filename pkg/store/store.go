// Package store persists scenes.
//
// This package defines the [Store] interface for scene records, with
// implementations for different backends:
//   - memory: in-process storage for tests and the HTTP server's dev mode
//   - file: one JSON file per scene, for CLI use
//   - sqlite: a single database file
//   - redis: shared storage for multi-instance servers
//   - mongo: one document per scene
//
// # Records
//
// A [Record] holds a scene's encoded document, an ETag over that encoding,
// and a bounded undo history of earlier encodings. Backends store records
// opaquely; [Scenes] converts between records and [scene.Scene] values and
// manages the history.
//
// # Usage
//
//	st, err := store.Open(ctx, store.Config{Backend: "file"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	scenes := store.NewScenes(st)
//	s, err := scenes.Load(ctx, "comp")
//	...
//	_, err = scenes.Save(ctx, s, "Apply circular formulas")
package store

import (
	"context"
	"time"
)

// MaxHistory bounds the undo steps kept per record.
const MaxHistory = 20

// Step is one undoable save: the encoding that was replaced and the name of
// the operation that replaced it.
type Step struct {
	Name string `json:"name" bson:"name"`
	Data []byte `json:"data" bson:"data"`
}

// Record is a stored scene.
type Record struct {
	Name      string    `json:"name" bson:"_id"`
	Data      []byte    `json:"data" bson:"data"`
	ETag      string    `json:"etag" bson:"etag"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	History   []Step    `json:"history,omitempty" bson:"history,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Data = append([]byte(nil), r.Data...)
	c.History = make([]Step, len(r.History))
	for i, s := range r.History {
		c.History[i] = Step{Name: s.Name, Data: append([]byte(nil), s.Data...)}
	}
	return &c
}

// Store is the interface for scene storage backends.
type Store interface {
	// Get retrieves a record by scene name.
	// Returns an error with code SCENE_NOT_FOUND if it does not exist.
	Get(ctx context.Context, name string) (*Record, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record.
	// Returns an error with code SCENE_NOT_FOUND if it does not exist.
	Delete(ctx context.Context, name string) error

	// List returns the stored scene names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases the backend's resources.
	Close() error
}
