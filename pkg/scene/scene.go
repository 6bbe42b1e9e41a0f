package scene

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/riglink/pkg/errors"
)

// Default composition settings.
const (
	DefaultWidth         = 1920
	DefaultHeight        = 1080
	DefaultFrameDuration = 1.0 / 30

	// NullLabel is the label given to nulls created without an explicit one.
	NullLabel = 1
)

// Document is the host document surface that rigs operate on.
//
// Layers are reported top to bottom; Index is 1-based in that order.
// Formula text is read and written per slot; writing a slot a layer does not
// have fails with PROPERTY_UNAVAILABLE.
type Document interface {
	Name() string
	Width() int
	Height() int
	FrameDuration() float64

	Layers() []*Layer
	LayerByID(id string) (*Layer, bool)
	LayerByName(name string) (*Layer, bool)
	Index(id string) int

	AddNull(name string, label int) (*Layer, error)
	RemoveLayer(id string) error

	Expression(id string, slot Slot) (string, error)
	SetExpression(id string, slot Slot, text string) error

	AddEffect(id string, e Effect) error
	SetEffectValue(id, name string, v Vec) error

	Selected() []*Layer
	Select(ids ...string) error

	Bindings() []Binding
	PutBinding(b Binding)
	RemoveBindings(match func(Binding) bool) int

	BeginUndoGroup(name string) (end func())
}

// Config describes a new scene.
type Config struct {
	Name          string
	Width         int
	Height        int
	FrameDuration float64 // seconds per frame
}

// Scene is the in-memory Document implementation.
//
// The zero value is not usable - use New.
type Scene struct {
	name          string
	width         int
	height        int
	frameDuration float64

	layers   []*Layer
	selected map[string]bool
	bindings []Binding

	revision uint64
	history  history
}

// New creates an empty scene. Zero dimensions and frame duration fall back
// to DefaultWidth, DefaultHeight and DefaultFrameDuration.
func New(cfg Config) (*Scene, error) {
	if err := errors.ValidateSceneName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Width < 0 || cfg.Height < 0 || cfg.FrameDuration < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene dimensions and frame duration must not be negative")
	}
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.FrameDuration == 0 {
		cfg.FrameDuration = DefaultFrameDuration
	}
	return &Scene{
		name:          cfg.Name,
		width:         cfg.Width,
		height:        cfg.Height,
		frameDuration: cfg.FrameDuration,
		selected:      make(map[string]bool),
	}, nil
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

// Width returns the composition width in pixels.
func (s *Scene) Width() int { return s.width }

// Height returns the composition height in pixels.
func (s *Scene) Height() int { return s.height }

// FrameDuration returns the duration of one frame in seconds.
func (s *Scene) FrameDuration() float64 { return s.frameDuration }

// Center returns the composition center.
func (s *Scene) Center() Vec {
	return Vec{float64(s.width) / 2, float64(s.height) / 2}
}

// Revision increments on every mutation.
func (s *Scene) Revision() uint64 { return s.revision }

// Layers returns the layers top to bottom. The slice is a copy; the layers
// are shared.
func (s *Scene) Layers() []*Layer {
	return slices.Clone(s.layers)
}

// LayerByID returns the layer with the given ID.
func (s *Scene) LayerByID(id string) (*Layer, bool) {
	for _, l := range s.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// LayerByName returns the topmost layer with exactly the given name.
// Hosts allow duplicate names, so later matches are not reachable by name.
func (s *Scene) LayerByName(name string) (*Layer, bool) {
	for _, l := range s.layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// Index returns the 1-based index of the layer, or 0 if absent.
func (s *Scene) Index(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i + 1
		}
	}
	return 0
}

// LayerSpec describes a layer added with AddLayer.
type LayerSpec struct {
	Name     string
	Kind     LayerKind
	ThreeD   bool
	Position Vec
	Label    int
}

// AddLayer appends a layer below the existing ones. A nil position places
// the layer at the composition center.
func (s *Scene) AddLayer(spec LayerSpec) (*Layer, error) {
	if err := errors.ValidateLayerName(spec.Name); err != nil {
		return nil, err
	}
	if spec.Kind == "" {
		spec.Kind = KindAV
	}
	if !ValidLayerKinds[spec.Kind] {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown layer kind %q", spec.Kind)
	}
	l := s.newLayer(spec)
	s.layers = append(s.layers, l)
	s.touch()
	return l, nil
}

// AddNull inserts a null layer at the top of the stack, as hosts do.
func (s *Scene) AddNull(name string, label int) (*Layer, error) {
	if err := errors.ValidateLayerName(name); err != nil {
		return nil, err
	}
	if label == 0 {
		label = NullLabel
	}
	l := s.newLayer(LayerSpec{Name: name, Kind: KindNull, Label: label})
	s.layers = slices.Insert(s.layers, 0, l)
	s.touch()
	return l, nil
}

// InsertLayer adds a fully formed layer at the bottom of the stack. It is
// used by importers; the layer ID must be unique.
func (s *Scene) InsertLayer(l *Layer) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if _, exists := s.LayerByID(l.ID); exists {
		return errors.New(errors.ErrCodeDuplicate, "duplicate layer ID %s", l.ID)
	}
	if l.Expressions == nil {
		l.Expressions = make(map[Slot]string)
	}
	s.layers = append(s.layers, l)
	s.touch()
	return nil
}

func (s *Scene) newLayer(spec LayerSpec) *Layer {
	dim := 2
	if spec.ThreeD {
		dim = 3
	}
	pos := spec.Position.Clone()
	if pos == nil {
		pos = s.Center()
	}
	pos = fit(pos, dim)
	return &Layer{
		ID:          uuid.NewString(),
		Name:        spec.Name,
		Label:       spec.Label,
		Kind:        spec.Kind,
		ThreeD:      spec.ThreeD,
		Position:    pos,
		AnchorPoint: make(Vec, dim),
		Scale:       Uniform(100, dim),
		Expressions: make(map[Slot]string),
	}
}

// fit pads or truncates v to n components.
func fit(v Vec, n int) Vec {
	out := make(Vec, n)
	copy(out, v)
	return out
}

// RemoveLayer deletes a layer. Its selection state and any bindings in which
// it is the consumer go with it. Bindings that name it as controller are
// kept, since their formula text still references it by name.
func (s *Scene) RemoveLayer(id string) error {
	i := slices.IndexFunc(s.layers, func(l *Layer) bool { return l.ID == id })
	if i < 0 {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", id)
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	delete(s.selected, id)
	s.bindings = slices.DeleteFunc(s.bindings, func(b Binding) bool { return b.ConsumerID == id })
	s.touch()
	return nil
}

// Expression returns the formula text in a slot.
func (s *Scene) Expression(id string, slot Slot) (string, error) {
	l, err := s.slotLayer(id, slot)
	if err != nil {
		return "", err
	}
	return l.Expressions[slot], nil
}

// SetExpression writes formula text into a slot. An empty string clears it.
func (s *Scene) SetExpression(id string, slot Slot, text string) error {
	l, err := s.slotLayer(id, slot)
	if err != nil {
		return err
	}
	if l.Expressions[slot] == text {
		return nil
	}
	if text == "" {
		delete(l.Expressions, slot)
	} else {
		l.Expressions[slot] = text
	}
	s.touch()
	return nil
}

func (s *Scene) slotLayer(id string, slot Slot) (*Layer, error) {
	l, ok := s.LayerByID(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", id)
	}
	if !l.HasSlot(slot) {
		return nil, errors.New(errors.ErrCodePropertyUnavailable, "layer %q has no %s property", l.Name, slot)
	}
	return l, nil
}

// AddEffect appends an effect parameter to a layer. Names must be unique
// per layer.
func (s *Scene) AddEffect(id string, e Effect) error {
	l, ok := s.LayerByID(id)
	if !ok {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", id)
	}
	if _, exists := l.Effect(e.Name); exists {
		return errors.New(errors.ErrCodeDuplicate, "layer %q already has effect %q", l.Name, e.Name)
	}
	if e.Type == "" {
		e.Type = ParamSlider
	}
	e.Value = fit(e.Value, e.Type.Dim())
	l.Effects = append(l.Effects, e)
	s.touch()
	return nil
}

// SetEffectValue updates the value of an existing effect parameter.
func (s *Scene) SetEffectValue(id, name string, v Vec) error {
	l, ok := s.LayerByID(id)
	if !ok {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", id)
	}
	for i := range l.Effects {
		if l.Effects[i].Name != name {
			continue
		}
		nv := fit(v, l.Effects[i].Type.Dim())
		if !l.Effects[i].Value.Equal(nv) {
			l.Effects[i].Value = nv
			s.touch()
		}
		return nil
	}
	return errors.New(errors.ErrCodeNotFound, "layer %q has no effect %q", l.Name, name)
}

// Selected returns the selected layers in scene order.
func (s *Scene) Selected() []*Layer {
	var out []*Layer
	for _, l := range s.layers {
		if s.selected[l.ID] {
			out = append(out, l)
		}
	}
	return out
}

// Select replaces the selection. Unknown IDs are rejected and leave the
// selection unchanged.
func (s *Scene) Select(ids ...string) error {
	next := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.LayerByID(id); !ok {
			return errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", id)
		}
		next[id] = true
	}
	s.selected = next
	s.touch()
	return nil
}

// Bindings returns a copy of the binding records.
func (s *Scene) Bindings() []Binding {
	return slices.Clone(s.bindings)
}

// PutBinding stores a binding, replacing any existing record for the same
// consumer and slot. An empty ID is filled in.
func (s *Scene) PutBinding(b Binding) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	for i, cur := range s.bindings {
		if cur.ConsumerID == b.ConsumerID && cur.Slot == b.Slot {
			s.bindings[i] = b
			s.touch()
			return
		}
	}
	s.bindings = append(s.bindings, b)
	s.touch()
}

// RemoveBindings deletes every binding for which match returns true and
// reports how many were removed.
func (s *Scene) RemoveBindings(match func(Binding) bool) int {
	before := len(s.bindings)
	s.bindings = slices.DeleteFunc(s.bindings, match)
	removed := before - len(s.bindings)
	if removed > 0 {
		s.touch()
	}
	return removed
}

func (s *Scene) touch() {
	s.revision++
}

var _ Document = (*Scene)(nil)
