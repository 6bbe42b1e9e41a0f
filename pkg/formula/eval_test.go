package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

const eps = 1e-9

func TestEaseEndpoints(t *testing.T) {
	for name, fn := range map[string]func(t, tMin, tMax, v1, v2 float64) float64{
		"linear":  Linear,
		"ease":    Ease,
		"easeIn":  EaseIn,
		"easeOut": EaseOut,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 10.0, fn(-5, 0, 1, 10, 20))
			assert.Equal(t, 10.0, fn(0, 0, 1, 10, 20))
			assert.Equal(t, 20.0, fn(1, 0, 1, 10, 20))
			assert.Equal(t, 20.0, fn(7, 0, 1, 10, 20))
		})
	}
	assert.InDelta(t, 15.0, Linear(0.5, 0, 1, 10, 20), eps)
	assert.InDelta(t, 15.0, Ease(0.5, 0, 1, 10, 20), eps)
}

func TestEaseOutFlattensAtEnd(t *testing.T) {
	const h = 1e-6
	slopeEnd := (easeOutUnit(1) - easeOutUnit(1-h)) / h
	slopeStart := (easeOutUnit(h) - easeOutUnit(0)) / h
	assert.InDelta(t, 0, slopeEnd, 1e-5)
	assert.InDelta(t, 1, slopeStart, 1e-5)
}

func TestGrowthProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.Float64Range(0.01, 100).Draw(rt, "growDuration")
		a := rapid.Float64Range(0, 1).Draw(rt, "a")
		b := rapid.Float64Range(0, 1).Draw(rt, "b")
		if a > b {
			a, b = b, a
		}

		if Growth(0, d) != 0 {
			rt.Fatalf("Growth(0) = %v, want 0", Growth(0, d))
		}
		if Growth(d, d) != 1 {
			rt.Fatalf("Growth(d) = %v, want 1", Growth(d, d))
		}
		if Growth(a*d, d) > Growth(b*d, d)+eps {
			rt.Fatalf("Growth not monotone: g(%v)=%v > g(%v)=%v", a*d, Growth(a*d, d), b*d, Growth(b*d, d))
		}
		beyond := rapid.Float64Range(0, 1000).Draw(rt, "beyond")
		if Growth(d+beyond, d) != 1 {
			rt.Fatalf("Growth beyond duration = %v, want 1", Growth(d+beyond, d))
		}
	})
}

func TestGrowthZeroDuration(t *testing.T) {
	assert.Equal(t, 1.0, Growth(0, 0))
	assert.Equal(t, 0.0, Growth(-1, 0))
}

func TestDistanceScaleProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxDist := rapid.Float64Range(1, 5000).Draw(rt, "maxDistance")
		minScale := rapid.Float64Range(0, 200).Draw(rt, "minScale")
		maxScale := rapid.Float64Range(minScale, 400).Draw(rt, "maxScale")
		d1 := rapid.Float64Range(0, 2*maxDist).Draw(rt, "d1")
		d2 := rapid.Float64Range(0, 2*maxDist).Draw(rt, "d2")
		if d1 > d2 {
			d1, d2 = d2, d1
		}

		if got := DistanceScale(0, maxDist, minScale, maxScale); got != maxScale {
			rt.Fatalf("scale(0) = %v, want %v", got, maxScale)
		}
		if got := DistanceScale(maxDist+d1, maxDist, minScale, maxScale); got != minScale {
			rt.Fatalf("scale(>=max) = %v, want %v", got, minScale)
		}
		if DistanceScale(d1, maxDist, minScale, maxScale) < DistanceScale(d2, maxDist, minScale, maxScale)-eps {
			rt.Fatalf("scale increased with distance between %v and %v", d1, d2)
		}
	})
}

func TestDistanceScaleIsNotLinear(t *testing.T) {
	mid := DistanceScale(125, 500, 100, 150)
	lin := Linear(125, 0, 500, 150, 100)
	assert.Greater(t, mid, lin, "ease holds the maximum longer than a linear remap")
}

func TestCircularStagger(t *testing.T) {
	p := CircularParams{GrowDuration: 2, MaxRadius: 200, RevolutionsPerSecond: 0.1, LayerDelay: 0.2}
	center := scene.Vec{960, 540}

	assert.Equal(t, 0.0, Stagger(1, p.LayerDelay))
	assert.InDelta(t, 0.4, Stagger(3, p.LayerDelay), eps)

	// Layer 1 at t=0 sits in the center with zero scale.
	assert.Equal(t, center, CircularPosition(p, 1, 0, center))
	assert.Equal(t, scene.Vec{0, 0}, CircularScale(p, 1, 0))

	// Fully grown at t=growDuration, angle = 2*0.1*2π.
	pos := CircularPosition(p, 1, 2, center)
	angle := 2 * 0.1 * 2 * math.Pi
	assert.InDelta(t, 960+200*math.Cos(angle), pos[0], 1e-9)
	assert.InDelta(t, 540+200*math.Sin(angle), pos[1], 1e-9)
	assert.Equal(t, scene.Vec{100, 100}, CircularScale(p, 1, 2))

	// Layer 2 lags by one delay.
	assert.InDelta(t, CircularScale(p, 1, 1)[0], CircularScale(p, 2, 1.2)[0], 1e-9)
	radius := scene.Distance(CircularPosition(p, 2, 2, center), center)
	assert.Less(t, radius, 200.0)
}

func TestZOffsetDelta(t *testing.T) {
	assert.InDelta(t, 50.0, ZOffsetDelta(250, 500), eps)
	assert.Equal(t, 0.0, ZOffsetDelta(250, 0))
}

func TestYDrivenScale(t *testing.T) {
	t.Run("controller right of layer clamps high", func(t *testing.T) {
		got := YDrivenScale(scene.Vec{500, 0}, scene.Vec{400, 300}, 0, 0, 100, 2)
		assert.Equal(t, scene.Vec{100, 100}, got)
		got = YDrivenScale(scene.Vec{400, 0}, scene.Vec{400, 300}, 0, 0, 100, 2)
		assert.Equal(t, scene.Vec{100, 100}, got, "equal X counts as reached")
	})

	t.Run("high clamp is two components on a 3D layer", func(t *testing.T) {
		got := YDrivenScale(scene.Vec{500, 0, 0}, scene.Vec{400, 300, 0}, 0, 0, 100, 3)
		assert.Equal(t, scene.Vec{100, 100}, got)
	})

	t.Run("remapped value follows the layer's dimensionality", func(t *testing.T) {
		got := YDrivenScale(scene.Vec{200, 300, 0}, scene.Vec{400, 300, 0}, 0, 10, 100, 3)
		require.Len(t, got, 3)
		assert.InDelta(t, 55, got[2], eps)
	})

	t.Run("remapped by normalized distance", func(t *testing.T) {
		// Controller at the start X and same Y: dist == maxDist → minVal.
		got := YDrivenScale(scene.Vec{0, 300}, scene.Vec{400, 300}, 0, 10, 100, 2)
		assert.InDelta(t, 10, got[0], eps)

		// Halfway: norm 0.5 → 55.
		got = YDrivenScale(scene.Vec{200, 300}, scene.Vec{400, 300}, 0, 10, 100, 2)
		assert.InDelta(t, 55, got[0], eps)
	})

	t.Run("zero reference distance", func(t *testing.T) {
		got := YDrivenScale(scene.Vec{0, 0}, scene.Vec{400, 300}, 400, 10, 100, 2)
		assert.Equal(t, scene.Vec{100, 100}, got)
	})
}

func TestYDrivenMaxWhenControllerAhead(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		layerX := rapid.Float64Range(-2000, 2000).Draw(rt, "layerX")
		ahead := rapid.Float64Range(0, 2000).Draw(rt, "ahead")
		maxVal := rapid.Float64Range(0, 500).Draw(rt, "maxVal")
		dim := rapid.IntRange(2, 3).Draw(rt, "dim")

		got := YDrivenScale(scene.Vec{layerX + ahead, 0}, scene.Vec{layerX, 100}, 0, 0, maxVal, dim)
		if want := (scene.Vec{maxVal, maxVal}); !got.Equal(want) {
			rt.Fatalf("got %v, want %v", got, want)
		}
	})
}

func yDrivenController(pos scene.Vec) *ControllerState {
	return &ControllerState{
		Params: map[string]scene.Vec{
			params.MinValue: {0},
			params.MaxValue: {100},
			params.StartPos: {960, 0},
			params.EndPos:   {960, 1920},
		},
		Position: Static(pos),
	}
}

func TestEvaluateYDrivenOffset(t *testing.T) {
	// The controller moves right at 100px/s; the layer sits at x=300.
	ctrl := yDrivenController(nil)
	ctrl.Position = func(t float64) scene.Vec { return scene.Vec{100 * t, 0} }
	f := Frame{Time: 3, Dim: 2, Value: scene.Vec{100, 100}, Position: Static(scene.Vec{300, 0}), Controller: ctrl}

	got, err := Evaluate(KindYDrivenScale, Options{}, f)
	require.NoError(t, err)
	assert.Equal(t, scene.Vec{100, 100}, got, "controller reached the layer at t=3")

	got, err = Evaluate(KindYDrivenScale, Options{OffsetSeconds: 1}, f)
	require.NoError(t, err)
	assert.Less(t, got[0], 100.0, "evaluated at t=2 the controller is still behind")
}

func TestEvaluateMissingController(t *testing.T) {
	f := Frame{Time: 1, Index: 1, Dim: 2, Value: scene.Vec{42, 42}}

	got, err := Evaluate(KindYDrivenScale, Options{Guard: true}, f)
	require.NoError(t, err)
	assert.Equal(t, scene.Vec{42, 42}, got, "guarded formulas are the identity")

	_, err = Evaluate(KindCircularPosition, Options{}, f)
	assert.True(t, errors.Is(err, errors.ErrCodeControllerNotFound))
}

func TestEvaluateMissingParameter(t *testing.T) {
	f := Frame{Controller: &ControllerState{Params: map[string]scene.Vec{}}}
	_, err := Evaluate(KindGridScale, Options{}, f)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestEvaluateGrid(t *testing.T) {
	ctrl := &ControllerState{
		Params: map[string]scene.Vec{
			params.MaxDistance: {500},
			params.MinScale:    {100},
			params.MaxScale:    {150},
			params.ZOffset:     {500},
		},
		Position: Static(scene.Vec{0, 0, 0}),
	}
	f := Frame{Dim: 3, Value: scene.Vec{300, 400, 10}, Position: Static(scene.Vec{300, 400, 0}), Controller: ctrl}

	got, err := Evaluate(KindGridScale, Options{}, f)
	require.NoError(t, err)
	assert.Equal(t, scene.Vec{100, 100}, got, "distance 500 reaches Min Scale")

	got, err = Evaluate(KindGridZOffset, Options{}, f)
	require.NoError(t, err)
	assert.Equal(t, scene.Vec{300, 400, 110}, got, "Z offset adds to the current value")
}
