package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/riglink/pkg/errors"
)

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	s, err := New(Config{Name: "comp", Width: 1920, Height: 1080, FrameDuration: 1.0 / 24})
	require.NoError(t, err)
	return s
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{Name: "comp"})
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, s.Width())
	assert.Equal(t, DefaultHeight, s.Height())
	assert.InDelta(t, DefaultFrameDuration, s.FrameDuration(), 1e-12)
	assert.Equal(t, Vec{960, 540}, s.Center())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Config{Name: ""})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidName))

	_, err = New(Config{Name: "x", Width: -1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestLayerOrdering(t *testing.T) {
	s := newTestScene(t)
	a, err := s.AddLayer(LayerSpec{Name: "a"})
	require.NoError(t, err)
	b, err := s.AddLayer(LayerSpec{Name: "b", ThreeD: true, Position: Vec{10, 20}})
	require.NoError(t, err)
	ctrl, err := s.AddNull("Controller", 9)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Index(ctrl.ID), "nulls go on top")
	assert.Equal(t, 2, s.Index(a.ID))
	assert.Equal(t, 3, s.Index(b.ID))
	assert.Equal(t, 0, s.Index("missing"))

	assert.Equal(t, Vec{960, 540}, a.Position)
	assert.Equal(t, Vec{10, 20, 0}, b.Position)
	assert.Equal(t, Vec{100, 100, 100}, b.Scale)
	assert.Equal(t, 9, ctrl.Label)
	assert.Equal(t, KindNull, ctrl.Kind)
}

func TestLayerByNameReturnsTopmost(t *testing.T) {
	s := newTestScene(t)
	first, _ := s.AddLayer(LayerSpec{Name: "dup"})
	_, _ = s.AddLayer(LayerSpec{Name: "dup"})

	got, ok := s.LayerByName("dup")
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	_, ok = s.LayerByName("Dup")
	assert.False(t, ok, "lookup is exact")
}

func TestExpressionSlots(t *testing.T) {
	s := newTestScene(t)
	l, _ := s.AddLayer(LayerSpec{Name: "solid"})
	cam, _ := s.AddLayer(LayerSpec{Name: "cam", Kind: KindCamera})

	require.NoError(t, s.SetExpression(l.ID, SlotScale, "[50, 50];"))
	text, err := s.Expression(l.ID, SlotScale)
	require.NoError(t, err)
	assert.Equal(t, "[50, 50];", text)

	require.NoError(t, s.SetExpression(l.ID, SlotScale, ""))
	assert.False(t, l.HasExpressions())

	err = s.SetExpression(cam.ID, SlotScale, "x")
	assert.True(t, errors.Is(err, errors.ErrCodePropertyUnavailable))
	require.NoError(t, s.SetExpression(cam.ID, SlotPosition, "value;"))

	_, err = s.Expression("nope", SlotPosition)
	assert.True(t, errors.Is(err, errors.ErrCodeLayerNotFound))
}

func TestEffects(t *testing.T) {
	s := newTestScene(t)
	l, _ := s.AddNull("Controller", 0)

	require.NoError(t, s.AddEffect(l.ID, Effect{Name: "Start Pos", Type: ParamPoint, Value: Vec{960}}))
	e, ok := l.Effect("Start Pos")
	require.True(t, ok)
	assert.Equal(t, Vec{960, 0}, e.Value, "values are fitted to the type")

	err := s.AddEffect(l.ID, Effect{Name: "Start Pos"})
	assert.True(t, errors.Is(err, errors.ErrCodeDuplicate))

	require.NoError(t, s.SetEffectValue(l.ID, "Start Pos", Vec{1, 2, 3}))
	e, _ = l.Effect("Start Pos")
	assert.Equal(t, Vec{1, 2}, e.Value)

	err = s.SetEffectValue(l.ID, "Nope", Vec{1})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestSelection(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.AddLayer(LayerSpec{Name: "a"})
	b, _ := s.AddLayer(LayerSpec{Name: "b"})

	require.NoError(t, s.Select(b.ID, a.ID))
	sel := s.Selected()
	require.Len(t, sel, 2)
	assert.Equal(t, "a", sel[0].Name, "selection is reported in scene order")

	err := s.Select("missing")
	assert.Error(t, err)
	assert.Len(t, s.Selected(), 2, "failed select keeps previous selection")

	require.NoError(t, s.RemoveLayer(a.ID))
	assert.Len(t, s.Selected(), 1)
}

func TestBindingsReplacePerSlot(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.AddLayer(LayerSpec{Name: "a"})

	s.PutBinding(Binding{ConsumerID: a.ID, ControllerName: "Controller", Slot: SlotScale})
	s.PutBinding(Binding{ConsumerID: a.ID, ControllerName: "Controller 1", Slot: SlotScale})
	s.PutBinding(Binding{ConsumerID: a.ID, ControllerName: "Controller 1", Slot: SlotPosition})

	bs := s.Bindings()
	require.Len(t, bs, 2)
	assert.Equal(t, "Controller 1", bs[0].ControllerName)
	assert.NotEmpty(t, bs[0].ID)

	n := s.RemoveBindings(func(b Binding) bool { return b.Slot == SlotPosition })
	assert.Equal(t, 1, n)

	require.NoError(t, s.RemoveLayer(a.ID))
	assert.Empty(t, s.Bindings(), "consumer removal drops its bindings")
}

func TestRemoveControllerKeepsBindings(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.AddLayer(LayerSpec{Name: "a"})
	ctrl, _ := s.AddNull("Controller", 0)
	s.PutBinding(Binding{ConsumerID: a.ID, ControllerID: ctrl.ID, ControllerName: ctrl.Name, Slot: SlotScale})

	require.NoError(t, s.RemoveLayer(ctrl.ID))
	assert.Len(t, s.Bindings(), 1)
}

func TestUndoGroup(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.AddLayer(LayerSpec{Name: "a"})

	end := s.BeginUndoGroup("Apply")
	require.NoError(t, s.SetExpression(a.ID, SlotScale, "[1,1];"))
	inner := s.BeginUndoGroup("Inner")
	_, err := s.AddNull("Controller", 0)
	require.NoError(t, err)
	inner()
	end()
	end() // second call is a no-op

	assert.Equal(t, []string{"Apply"}, s.UndoSteps())

	name, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, "Apply", name)
	assert.Len(t, s.Layers(), 1)
	restored, _ := s.LayerByID(a.ID)
	assert.Equal(t, "", restored.Expression(SlotScale))

	_, ok = s.Undo()
	assert.False(t, ok)
}

func TestUndoGroupWithoutChangesRecordsNothing(t *testing.T) {
	s := newTestScene(t)
	end := s.BeginUndoGroup("Nothing")
	end()
	assert.Empty(t, s.UndoSteps())
}

func TestVecMath(t *testing.T) {
	assert.Equal(t, Vec{4, 6, 3}, Vec{1, 2}.Add(Vec{3, 4, 3}))
	assert.Equal(t, Vec{-2, -2, -3}, Vec{1, 2}.Sub(Vec{3, 4, 3}))
	assert.InDelta(t, 5.0, Distance(Vec{0, 0}, Vec{3, 4}), 1e-12)
	assert.Equal(t, Vec{7, 7, 7}, Uniform(7, 3))
	assert.True(t, Vec{1, 2}.Equal(Vec{1, 2}))
	assert.False(t, Vec{1, 2}.Equal(Vec{1, 2, 0}))
}
