package binding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/formula"
	"github.com/matzehuels/riglink/pkg/scene"
)

type fixture struct {
	scene    *scene.Scene
	resolver *Resolver
	ctrl     *scene.Layer
}

func newFixture(t *testing.T, kind controller.Kind) fixture {
	t.Helper()
	s, err := scene.New(scene.Config{Name: "comp"})
	require.NoError(t, err)
	reg := controller.NewRegistry()
	ctrl, err := reg.CreateUnique(context.Background(), s, kind)
	require.NoError(t, err)
	return fixture{scene: s, resolver: NewResolver(reg), ctrl: ctrl}
}

func (f fixture) layer(t *testing.T, spec scene.LayerSpec) *scene.Layer {
	t.Helper()
	l, err := f.scene.AddLayer(spec)
	require.NoError(t, err)
	return l
}

func TestBindWritesTextAndRecords(t *testing.T) {
	f := newFixture(t, controller.Circular)
	a := f.layer(t, scene.LayerSpec{Name: "a"})
	b := f.layer(t, scene.LayerSpec{Name: "b"})

	res, err := f.resolver.Bind(f.scene, []*scene.Layer{a, b}, f.ctrl, controller.Circular.Formulas, formula.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Empty(t, res.Failures)

	want, _ := formula.Render(formula.KindCircularPosition, "Controller", formula.Options{})
	assert.Equal(t, want, a.Expression(scene.SlotPosition))
	assert.Contains(t, b.Expression(scene.SlotScale), formula.ControllerRef("Controller"))

	assert.Len(t, f.scene.Bindings(), 4)
	assert.Equal(t, 2, f.resolver.CountBound(f.scene, "Controller"))
}

func TestCountBoundUnreferenced(t *testing.T) {
	f := newFixture(t, controller.Circular)
	f.layer(t, scene.LayerSpec{Name: "a"})
	assert.Equal(t, 0, f.resolver.CountBound(f.scene, "Controller"))
	assert.Equal(t, 0, f.resolver.CountBound(f.scene, "Controller 9"))
}

func TestBindReplacesPreviousController(t *testing.T) {
	f := newFixture(t, controller.Circular)
	second, err := f.resolver.Registry.CreateUnique(context.Background(), f.scene, controller.Circular)
	require.NoError(t, err)
	a := f.layer(t, scene.LayerSpec{Name: "a"})

	_, err = f.resolver.Bind(f.scene, []*scene.Layer{a}, f.ctrl, controller.Circular.Formulas, formula.Options{})
	require.NoError(t, err)
	_, err = f.resolver.Bind(f.scene, []*scene.Layer{a}, second, controller.Circular.Formulas, formula.Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, f.resolver.CountBound(f.scene, "Controller"))
	assert.Equal(t, 1, f.resolver.CountBound(f.scene, "Controller 1"))
	assert.NotContains(t, a.Expression(scene.SlotPosition), formula.ControllerRef("Controller"))
	assert.Len(t, ForConsumer(f.scene, a.ID), 2)
}

func TestBindSkipsControllerAndToleratesFailures(t *testing.T) {
	f := newFixture(t, controller.Circular)
	a := f.layer(t, scene.LayerSpec{Name: "a"})
	cam := f.layer(t, scene.LayerSpec{Name: "cam", Kind: scene.KindCamera, ThreeD: true})

	res, err := f.resolver.Bind(f.scene, []*scene.Layer{f.ctrl, a, cam}, f.ctrl, controller.Circular.Formulas, formula.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Applied, "the camera still gets its position formula")
	require.Len(t, res.Failures, 1)

	var le *errors.LayerError
	require.ErrorAs(t, res.Failures[0], &le)
	assert.Equal(t, "cam", le.Layer)
	assert.Equal(t, errors.ErrCodePropertyUnavailable, le.Code())

	assert.False(t, f.ctrl.HasExpressions())
}

func TestBindGridOnly3DZOffset(t *testing.T) {
	f := newFixture(t, controller.Grid)
	flat := f.layer(t, scene.LayerSpec{Name: "flat"})
	deep := f.layer(t, scene.LayerSpec{Name: "deep", ThreeD: true})

	res, err := f.resolver.Bind(f.scene, []*scene.Layer{flat, deep}, f.ctrl, controller.Grid.Formulas, formula.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)

	assert.Empty(t, flat.Expression(scene.SlotPosition))
	assert.NotEmpty(t, flat.Expression(scene.SlotScale))
	assert.Contains(t, deep.Expression(scene.SlotPosition), "zDelta")
	assert.Len(t, ForConsumer(f.scene, flat.ID), 1)
	assert.Len(t, ForConsumer(f.scene, deep.ID), 2)
}

func TestBindRejectsUnknownFormula(t *testing.T) {
	f := newFixture(t, controller.Circular)
	a := f.layer(t, scene.LayerSpec{Name: "a"})
	_, err := f.resolver.Bind(f.scene, []*scene.Layer{a}, f.ctrl, []formula.Kind{"wobble"}, formula.Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind))
	assert.False(t, a.HasExpressions())
}

func TestDisplayLabelRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		count int
		label string
	}{
		{"Controller", 0, "Controller (0 layers)"},
		{"Controller 2", 3, "Controller 2 (3 layers)"},
		{"Controller (x)", 12, "Controller (x) (12 layers)"},
	}
	for _, tt := range tests {
		if got := DisplayLabel(tt.name, tt.count); got != tt.label {
			t.Errorf("DisplayLabel(%q, %d) = %q, want %q", tt.name, tt.count, got, tt.label)
		}
		if got := StripLabel(tt.label); got != tt.name {
			t.Errorf("StripLabel(%q) = %q, want %q", tt.label, got, tt.name)
		}
	}
}

func TestResolveSelection(t *testing.T) {
	f := newFixture(t, controller.Circular)

	l, err := f.resolver.ResolveSelection(f.scene, "Controller (4 layers)")
	require.NoError(t, err)
	assert.Equal(t, f.ctrl.ID, l.ID)

	l, err = f.resolver.ResolveSelection(f.scene, "Controller")
	require.NoError(t, err)
	assert.Equal(t, f.ctrl.ID, l.ID)

	_, err = f.resolver.ResolveSelection(f.scene, "Controller 5 (1 layers)")
	assert.True(t, errors.Is(err, errors.ErrCodeControllerNotFound))
}

func TestSelectedConsumers(t *testing.T) {
	f := newFixture(t, controller.Circular)
	a := f.layer(t, scene.LayerSpec{Name: "a"})

	_, err := SelectedConsumers(f.scene)
	assert.True(t, errors.Is(err, errors.ErrCodeNoSelection))

	require.NoError(t, f.scene.Select(a.ID))
	sel, err := SelectedConsumers(f.scene)
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.Equal(t, a.ID, sel[0].ID)
}

func TestRecover(t *testing.T) {
	f := newFixture(t, controller.YDriven)
	a := f.layer(t, scene.LayerSpec{Name: "a"})
	other := f.layer(t, scene.LayerSpec{Name: "other"})

	text, err := formula.Render(formula.KindYDrivenScale, "Controller", formula.Options{Guard: true, OffsetSeconds: 0.25})
	require.NoError(t, err)
	require.NoError(t, f.scene.SetExpression(a.ID, scene.SlotScale, text))
	require.NoError(t, f.scene.SetExpression(other.ID, scene.SlotPosition, `thisComp.layer("Background").position`))

	assert.Equal(t, 1, f.resolver.Recover(f.scene))
	assert.Equal(t, 0, f.resolver.Recover(f.scene), "recovery is idempotent")

	bs := ForConsumer(f.scene, a.ID)
	require.Len(t, bs, 1)
	assert.Equal(t, string(formula.KindYDrivenScale), bs[0].Formula)
	assert.Equal(t, f.ctrl.ID, bs[0].ControllerID)
	assert.True(t, bs[0].Guard)
	assert.Equal(t, 0.25, bs[0].OffsetSeconds)

	got, err := formula.RenderBinding(bs[0])
	require.NoError(t, err)
	assert.Equal(t, text, got, "recovered records render the same text")
}

func TestRecoverLegacyText(t *testing.T) {
	f := newFixture(t, controller.Grid)
	a := f.layer(t, scene.LayerSpec{Name: "a"})

	legacy := "var ctrl = thisComp.layer(\"Controller\");\n" +
		"var pos = thisLayer.toWorld([0,0]);\n" +
		"var ctrlPos = ctrl.toWorld(ctrl.anchorPoint);\n" +
		"var dist = length(pos, ctrlPos);\n" +
		"var scaleFactor = ease(dist, 0, 500, 150, 100);\n" +
		"[scaleFactor, scaleFactor];"
	require.NoError(t, f.scene.SetExpression(a.ID, scene.SlotScale, legacy))

	assert.Equal(t, 1, f.resolver.Recover(f.scene))
	assert.Equal(t, 1, f.resolver.CountBound(f.scene, "Controller"))
	assert.Equal(t, string(formula.KindGridScale), ForConsumer(f.scene, a.ID)[0].Formula)
}
