package formula

import (
	"math"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Track returns a layer's position at time t.
type Track func(t float64) scene.Vec

// Static returns a Track that always reports v.
func Static(v scene.Vec) Track {
	return func(float64) scene.Vec { return v.Clone() }
}

// ControllerState is what a formula can see of its controller.
type ControllerState struct {
	Params   map[string]scene.Vec
	Position Track
}

// Frame is everything a formula reads when the host evaluates it.
type Frame struct {
	Time   float64   // Composition time in seconds
	Index  int       // 1-based layer index
	Center scene.Vec // Composition center
	Dim    int       // 2 or 3, the layer's dimensionality
	Value  scene.Vec // The property's own (pre-formula) value

	Position   Track            // The layer's position over time
	Controller *ControllerState // nil when the controller layer is missing
}

// Stagger returns the start delay of the layer at the given 1-based index.
// The first layer starts immediately.
func Stagger(index int, layerDelay float64) float64 {
	return float64(index-1) * layerDelay
}

// Growth is the eased 0→1 build-up of the circular formulas at local time t.
// A non-positive growDuration grows instantly.
func Growth(t, growDuration float64) float64 {
	if growDuration <= 0 {
		if t >= 0 {
			return 1
		}
		return 0
	}
	return EaseOut(Clamp(t/growDuration, 0, 1), 0, 1, 0, 1)
}

// CircularParams are the controller parameters of the circular kinds.
type CircularParams struct {
	GrowDuration         float64
	MaxRadius            float64
	RevolutionsPerSecond float64
	LayerDelay           float64
}

// CircularPosition returns the spiral position of the layer at index at
// composition time t.
func CircularPosition(p CircularParams, index int, t float64, center scene.Vec) scene.Vec {
	local := t - Stagger(index, p.LayerDelay)
	radius := p.MaxRadius * Growth(local, p.GrowDuration)
	angle := local * p.RevolutionsPerSecond * 2 * math.Pi
	return center.Add(scene.Vec{math.Cos(angle) * radius, math.Sin(angle) * radius})
}

// CircularScale returns the uniform percentage scale of the layer at index.
func CircularScale(p CircularParams, index int, t float64) scene.Vec {
	s := Growth(t-Stagger(index, p.LayerDelay), p.GrowDuration) * 100
	return scene.Vec{s, s}
}

// DistanceScale eases from maxScale at distance 0 to minScale at maxDistance
// and beyond.
func DistanceScale(distance, maxDistance, minScale, maxScale float64) float64 {
	return Ease(distance, 0, maxDistance, maxScale, minScale)
}

// ZOffsetDelta is how far a layer at the given distance is pushed along Z.
// A zero Z Offset parameter disables the push.
func ZOffsetDelta(distance, zOffset float64) float64 {
	if zOffset == 0 {
		return 0
	}
	return distance / zOffset * 100
}

// YDrivenScale computes the Y-driven uniform scale. When the controller is
// at or right of the layer, the scale is exactly (maxVal, maxVal) whatever
// the layer's dimensionality; otherwise the distance to the controller, normalized by the distance
// from the layer to Start Pos's X, is remapped linearly onto [maxVal, minVal]
// and sized to dim components.
func YDrivenScale(ctrlPos, layerPos scene.Vec, startX, minVal, maxVal float64, dim int) scene.Vec {
	if ctrlPos.At(0) >= layerPos.At(0) {
		return scene.Vec{maxVal, maxVal}
	}
	dist := scene.Distance(ctrlPos, layerPos)
	ref := scene.Vec{startX, layerPos.At(1), layerPos.At(2)}
	maxDist := scene.Distance(ref, layerPos)
	norm := 0.0
	if maxDist != 0 {
		norm = Clamp(dist/maxDist, 0, 1)
	}
	return scene.Uniform(Linear(norm, 0, 1, maxVal, minVal), dim)
}

// Evaluate computes what the host would produce for a formula of the given
// kind in frame f.
func Evaluate(kind Kind, opts Options, f Frame) (scene.Vec, error) {
	info, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	if f.Controller == nil {
		if opts.Guard {
			return f.Value.Clone(), nil
		}
		return nil, errors.New(errors.ErrCodeControllerNotFound, "%s formula references a missing controller", kind)
	}
	vals := make(map[string]scene.Vec, len(info.Params))
	for _, name := range info.Params {
		v, ok := f.Controller.Params[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "controller has no parameter %q", name)
		}
		vals[name] = v
	}
	scalar := func(name string) float64 { return vals[name].At(0) }

	pos := f.Position
	if pos == nil {
		pos = Static(nil)
	}
	ctrlPos := f.Controller.Position
	if ctrlPos == nil {
		ctrlPos = Static(nil)
	}

	switch kind {
	case KindCircularPosition, KindCircularScale:
		p := CircularParams{
			GrowDuration:         scalar(params.GrowDuration),
			MaxRadius:            scalar(params.MaxRadius),
			RevolutionsPerSecond: scalar(params.RevolutionsPerSecond),
			LayerDelay:           scalar(params.LayerDelay),
		}
		if kind == KindCircularScale {
			return CircularScale(p, f.Index, f.Time), nil
		}
		return CircularPosition(p, f.Index, f.Time, f.Center), nil

	case KindGridScale:
		dist := scene.Distance(pos(f.Time), ctrlPos(f.Time))
		s := DistanceScale(dist, scalar(params.MaxDistance), scalar(params.MinScale), scalar(params.MaxScale))
		return scene.Vec{s, s}, nil

	case KindGridZOffset:
		dist := scene.Distance(pos(f.Time), ctrlPos(f.Time))
		return f.Value.Add(scene.Vec{0, 0, ZOffsetDelta(dist, scalar(params.ZOffset))}), nil

	case KindYDrivenScale:
		t := f.Time - opts.OffsetSeconds
		dim := f.Dim
		if dim == 0 {
			dim = 2
		}
		return YDrivenScale(ctrlPos(t), pos(t), vals[params.StartPos].At(0),
			scalar(params.MinValue), scalar(params.MaxValue), dim), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidKind, "unknown formula kind %q", kind)
}
