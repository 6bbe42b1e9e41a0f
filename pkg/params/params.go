// Package params manages the typed, named parameters attached to controller
// layers.
//
// A [Schema] is an ordered list of parameter specs. Controllers of a given
// kind are always created with the kind's full schema. When a controller
// already exists, [Ensure] repairs it against the schema under an upgrade
// [Policy].
package params

import (
	"fmt"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Parameter names used by the built-in controller kinds.
const (
	GrowDuration         = "Grow Duration"
	MaxRadius            = "Max Radius"
	RevolutionsPerSecond = "Revolutions Per Second"
	LayerDelay           = "Layer Delay"

	MaxDistance = "Max Distance"
	MinScale    = "Min Scale"
	MaxScale    = "Max Scale"
	ZOffset     = "Z Offset"

	StartPos = "Start Pos"
	EndPos   = "End Pos"
	MinValue = "Min Value"
	MaxValue = "Max Value"
)

// Spec describes one parameter slot.
type Spec struct {
	Name    string
	Type    scene.ParamType
	Default scene.Vec

	// Legacy holds defaults shipped by earlier schema versions. Under
	// PolicyPreserveIfCustomized a value equal to one of these is treated
	// as never customized and is moved to Default.
	Legacy []scene.Vec
}

// Slider returns a scalar spec.
func Slider(name string, def float64) Spec {
	return Spec{Name: name, Type: scene.ParamSlider, Default: scene.Vec{def}}
}

// Point returns a 2D point spec.
func Point(name string, x, y float64) Spec {
	return Spec{Name: name, Type: scene.ParamPoint, Default: scene.Vec{x, y}}
}

// Schema is an ordered set of parameter specs.
type Schema []Spec

// Lookup returns the spec with the given name.
func (s Schema) Lookup(name string) (Spec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Names returns the parameter names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, spec := range s {
		names[i] = spec.Name
	}
	return names
}

// Built-in schemas.
var (
	CircularSchema = Schema{
		Slider(GrowDuration, 2),
		Slider(MaxRadius, 200),
		Slider(RevolutionsPerSecond, 0.1),
		Slider(LayerDelay, 0.2),
	}

	GridSchema = Schema{
		Slider(MaxDistance, 500),
		Slider(MinScale, 100),
		Slider(MaxScale, 150),
		Slider(ZOffset, 500),
	}

	YDrivenSchema = Schema{
		Point(StartPos, 960, 0),
		Point(EndPos, 960, 1920),
		Slider(MinValue, 0),
		Slider(MaxValue, 100),
	}
)

// Policy selects how Ensure treats parameters that already exist.
type Policy string

const (
	// PolicyOverwrite resets any value that differs from the default.
	PolicyOverwrite Policy = "overwrite"

	// PolicyPreserveIfCustomized only moves values still at a legacy default.
	PolicyPreserveIfCustomized Policy = "preserve-if-customized"
)

// ParsePolicy validates a policy name. The empty string selects
// PolicyPreserveIfCustomized.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyPreserveIfCustomized, nil
	case PolicyOverwrite, PolicyPreserveIfCustomized:
		return Policy(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown upgrade policy %q (want %q or %q)", s, PolicyOverwrite, PolicyPreserveIfCustomized)
}

// Outcome reports what SetDefaultIfMissing did.
type Outcome string

const (
	Created Outcome = "created"
	Updated Outcome = "updated"
	Kept    Outcome = "kept"
)

// Initialize creates one parameter per schema entry, in order, each set to
// its default.
func Initialize(doc scene.Document, layerID string, schema Schema) error {
	for _, spec := range schema {
		e := scene.Effect{Name: spec.Name, Type: spec.Type, Value: spec.Default.Clone()}
		if err := doc.AddEffect(layerID, e); err != nil {
			return fmt.Errorf("add parameter %q: %w", spec.Name, err)
		}
	}
	return nil
}

// Get returns the current value of a parameter.
func Get(doc scene.Document, layerID, name string) (scene.Vec, error) {
	l, ok := doc.LayerByID(layerID)
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %s not found", layerID)
	}
	e, ok := l.Effect(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "parameter %q not found on %q", name, l.Name)
	}
	return e.Value.Clone(), nil
}

// Scalar returns the first component of a parameter.
func Scalar(doc scene.Document, layerID, name string) (float64, error) {
	v, err := Get(doc, layerID, name)
	if err != nil {
		return 0, err
	}
	return v.At(0), nil
}

// SetDefaultIfMissing creates the parameter with its default when absent.
// An existing parameter is left alone unless the policy says otherwise.
func SetDefaultIfMissing(doc scene.Document, layerID string, spec Spec, policy Policy) (Outcome, error) {
	cur, err := Get(doc, layerID, spec.Name)
	if errors.Is(err, errors.ErrCodeNotFound) {
		e := scene.Effect{Name: spec.Name, Type: spec.Type, Value: spec.Default.Clone()}
		if err := doc.AddEffect(layerID, e); err != nil {
			return "", fmt.Errorf("add parameter %q: %w", spec.Name, err)
		}
		return Created, nil
	}
	if err != nil {
		return "", err
	}

	if !shouldUpdate(cur, spec, policy) {
		return Kept, nil
	}
	if err := doc.SetEffectValue(layerID, spec.Name, spec.Default); err != nil {
		return "", fmt.Errorf("set parameter %q: %w", spec.Name, err)
	}
	return Updated, nil
}

func shouldUpdate(cur scene.Vec, spec Spec, policy Policy) bool {
	if cur.Equal(spec.Default) {
		return false
	}
	switch policy {
	case PolicyOverwrite:
		return true
	default:
		for _, old := range spec.Legacy {
			if cur.Equal(old) {
				return true
			}
		}
		return false
	}
}

// Ensure applies SetDefaultIfMissing to every schema entry and returns the
// outcome per parameter name.
func Ensure(doc scene.Document, layerID string, schema Schema, policy Policy) (map[string]Outcome, error) {
	out := make(map[string]Outcome, len(schema))
	for _, spec := range schema {
		o, err := SetDefaultIfMissing(doc, layerID, spec, policy)
		if err != nil {
			return out, err
		}
		out[spec.Name] = o
	}
	return out, nil
}

// Values returns a layer's parameter values keyed by name.
func Values(l *scene.Layer) map[string]scene.Vec {
	out := make(map[string]scene.Vec, len(l.Effects))
	for _, e := range l.Effects {
		out[e.Name] = e.Value.Clone()
	}
	return out
}
