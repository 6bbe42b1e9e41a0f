// Package controller finds, names, and creates controller layers.
//
// A controller is a null layer whose name starts with the registry prefix
// ("Controller" by default). Its parameters live on the layer as effect
// parameters described by the controller's [Kind].
package controller

import (
	"context"
	"strconv"
	"strings"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/observability"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// DefaultPrefix is the name prefix that marks controller layers.
const DefaultPrefix = "Controller"

// maxProbe bounds the unique-name search.
const maxProbe = 10000

// Registry locates and creates controllers. It holds no scene state; a
// single Registry can serve any number of documents.
type Registry struct {
	prefix string
	bus    *observability.Bus
}

// Option configures a Registry.
type Option func(*Registry)

// WithPrefix sets the controller name prefix.
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithBus sets the bus that receives registry change events.
func WithBus(bus *observability.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// NewRegistry returns a registry with the default prefix and no bus.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix returns the controller name prefix.
func (r *Registry) Prefix() string { return r.prefix }

// Bus returns the registry's event bus, which may be nil.
func (r *Registry) Bus() *observability.Bus { return r.bus }

// IsController reports whether l is a controller by name.
func (r *Registry) IsController(l *scene.Layer) bool {
	return l != nil && strings.HasPrefix(l.Name, r.prefix)
}

// FindAll returns every controller in scene order.
func (r *Registry) FindAll(doc scene.Document) []*scene.Layer {
	var out []*scene.Layer
	for _, l := range doc.Layers() {
		if r.IsController(l) {
			out = append(out, l)
		}
	}
	return out
}

// ExistsByName reports whether any layer, controller or not, has the name.
func (r *Registry) ExistsByName(doc scene.Document, name string) bool {
	_, ok := doc.LayerByName(name)
	return ok
}

// Get returns the controller with the exact name.
func (r *Registry) Get(doc scene.Document, name string) (*scene.Layer, error) {
	l, ok := doc.LayerByName(name)
	if !ok || !r.IsController(l) {
		return nil, errors.New(errors.ErrCodeControllerNotFound, "controller %q not found", name)
	}
	return l, nil
}

// NextName returns the first free name in the sequence prefix,
// "prefix 1", "prefix 2", and so on.
func (r *Registry) NextName(doc scene.Document) (string, error) {
	if !r.ExistsByName(doc, r.prefix) {
		return r.prefix, nil
	}
	for i := 1; i < maxProbe; i++ {
		name := r.prefix + " " + strconv.Itoa(i)
		if !r.ExistsByName(doc, name) {
			return name, nil
		}
	}
	return "", errors.New(errors.ErrCodeInternal, "no free controller name after %d attempts", maxProbe)
}

// CreateUnique adds a new controller of the given kind under the next free
// name and initializes its parameters.
func (r *Registry) CreateUnique(ctx context.Context, doc scene.Document, kind Kind) (*scene.Layer, error) {
	name, err := r.NextName(doc)
	if err != nil {
		return nil, err
	}
	return r.create(ctx, doc, name, kind)
}

// FindOrCreate returns the layer with the exact name, repairing its
// parameters against the kind's schema under policy, or creates it. The
// boolean reports whether a new controller was created.
func (r *Registry) FindOrCreate(ctx context.Context, doc scene.Document, name string, kind Kind, policy params.Policy) (*scene.Layer, bool, error) {
	if l, ok := doc.LayerByName(name); ok {
		outcomes, err := params.Ensure(doc, l.ID, kind.Schema, policy)
		if err != nil {
			return nil, false, err
		}
		if repaired := countChanged(outcomes); repaired > 0 {
			r.bus.Emit(ctx, observability.Event{
				Type:       observability.EventSchemaRepaired,
				Scene:      doc.Name(),
				Controller: name,
				Count:      repaired,
			})
		}
		return l, false, nil
	}
	l, err := r.create(ctx, doc, name, kind)
	if err != nil {
		return nil, false, err
	}
	return l, true, nil
}

// Acquire returns a controller for kind according to its naming mode.
func (r *Registry) Acquire(ctx context.Context, doc scene.Document, kind Kind, policy params.Policy) (*scene.Layer, bool, error) {
	if kind.Naming == NamingShared {
		return r.FindOrCreate(ctx, doc, r.prefix, kind, policy)
	}
	l, err := r.CreateUnique(ctx, doc, kind)
	return l, err == nil, err
}

func (r *Registry) create(ctx context.Context, doc scene.Document, name string, kind Kind) (*scene.Layer, error) {
	l, err := doc.AddNull(name, kind.Label)
	if err != nil {
		return nil, err
	}
	if err := params.Initialize(doc, l.ID, kind.Schema); err != nil {
		return nil, err
	}
	r.bus.Emit(ctx, observability.Event{
		Type:       observability.EventControllerCreated,
		Scene:      doc.Name(),
		Controller: name,
	})
	return l, nil
}

func countChanged(outcomes map[string]params.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o != params.Kept {
			n++
		}
	}
	return n
}
