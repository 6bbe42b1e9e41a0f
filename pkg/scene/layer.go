package scene

// Slot names a formula-bearing property on a layer.
type Slot string

const (
	SlotPosition Slot = "position"
	SlotScale    Slot = "scale"
)

// Slots lists every formula slot in a fixed order.
var Slots = []Slot{SlotPosition, SlotScale}

// LayerKind distinguishes layer types. Camera and light layers have no
// scale property.
type LayerKind string

const (
	KindAV     LayerKind = "av"
	KindNull   LayerKind = "null"
	KindCamera LayerKind = "camera"
	KindLight  LayerKind = "light"
)

// ValidLayerKinds is the set of supported layer kinds.
var ValidLayerKinds = map[LayerKind]bool{
	KindAV:     true,
	KindNull:   true,
	KindCamera: true,
	KindLight:  true,
}

// ParamType is the semantic type of an effect parameter.
type ParamType string

const (
	ParamSlider  ParamType = "slider"
	ParamPoint   ParamType = "point"
	ParamPoint3D ParamType = "point3d"
)

// Dim returns the number of components a value of this type carries.
func (t ParamType) Dim() int {
	switch t {
	case ParamPoint:
		return 2
	case ParamPoint3D:
		return 3
	default:
		return 1
	}
}

// ControlName returns the property name the host uses to read the value,
// as in effect("Max Radius")("Slider").
func (t ParamType) ControlName() string {
	switch t {
	case ParamPoint:
		return "Point"
	case ParamPoint3D:
		return "3D Point"
	default:
		return "Slider"
	}
}

// Effect is a named parameter attached to a layer.
type Effect struct {
	Name  string    `json:"name" yaml:"name"`
	Type  ParamType `json:"type" yaml:"type"`
	Value Vec       `json:"value" yaml:"value"`
}

// Scalar returns the first component, which is the value of a slider.
func (e Effect) Scalar() float64 { return e.Value.At(0) }

// Layer is a member of a scene.
//
// Position, AnchorPoint and Scale have two components for 2D layers and
// three for 3D layers. Expressions holds formula text keyed by slot; an
// absent or empty entry means no formula.
type Layer struct {
	ID          string
	Name        string
	Label       int
	Kind        LayerKind
	ThreeD      bool
	Position    Vec
	AnchorPoint Vec
	Scale       Vec
	Effects     []Effect
	Expressions map[Slot]string
}

// HasSlot reports whether the layer has the given formula slot.
func (l *Layer) HasSlot(s Slot) bool {
	switch s {
	case SlotPosition:
		return true
	case SlotScale:
		return l.Kind != KindCamera && l.Kind != KindLight
	default:
		return false
	}
}

// Expression returns the formula text in slot s, or "" when none is set.
func (l *Layer) Expression(s Slot) string {
	return l.Expressions[s]
}

// HasExpressions reports whether any slot carries formula text.
func (l *Layer) HasExpressions() bool {
	for _, text := range l.Expressions {
		if text != "" {
			return true
		}
	}
	return false
}

// Effect returns the effect with the given name.
func (l *Layer) Effect(name string) (Effect, bool) {
	for _, e := range l.Effects {
		if e.Name == name {
			return e, true
		}
	}
	return Effect{}, false
}

// Value returns the current static value of a slot.
func (l *Layer) Value(s Slot) Vec {
	switch s {
	case SlotScale:
		return l.Scale
	default:
		return l.Position
	}
}

// Dim returns 3 for 3D layers and 2 otherwise.
func (l *Layer) Dim() int {
	if l.ThreeD {
		return 3
	}
	return 2
}

func (l *Layer) clone() *Layer {
	c := *l
	c.Position = l.Position.Clone()
	c.AnchorPoint = l.AnchorPoint.Clone()
	c.Scale = l.Scale.Clone()
	c.Effects = make([]Effect, len(l.Effects))
	for i, e := range l.Effects {
		e.Value = e.Value.Clone()
		c.Effects[i] = e
	}
	c.Expressions = make(map[Slot]string, len(l.Expressions))
	for k, v := range l.Expressions {
		c.Expressions[k] = v
	}
	return &c
}

// Binding records that a consumer layer's slot is driven by a controller.
//
// ControllerName is kept next to ControllerID because formula text refers
// to the controller by name; the binding stays meaningful after the
// controller layer is deleted.
type Binding struct {
	ID             string  `json:"id" yaml:"id"`
	ConsumerID     string  `json:"consumer_id" yaml:"consumer_id"`
	ControllerID   string  `json:"controller_id" yaml:"controller_id"`
	ControllerName string  `json:"controller_name" yaml:"controller_name"`
	Slot           Slot    `json:"slot" yaml:"slot"`
	Formula        string  `json:"formula" yaml:"formula"`
	OffsetSeconds  float64 `json:"offset_seconds,omitempty" yaml:"offset_seconds,omitempty"`
	Guard          bool    `json:"guard,omitempty" yaml:"guard,omitempty"`
}
