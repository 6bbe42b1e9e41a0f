package rig

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/formula"
	"github.com/matzehuels/riglink/pkg/observability"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

func newTestRunner(opts ...Option) *Runner {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return NewRunner(nil, logger, opts...)
}

func newTestScene(t *testing.T, names ...string) (*scene.Scene, []*scene.Layer) {
	t.Helper()
	s, err := scene.New(scene.Config{Name: "comp"})
	require.NoError(t, err)
	var layers []*scene.Layer
	for _, n := range names {
		l, err := s.AddLayer(scene.LayerSpec{Name: n})
		require.NoError(t, err)
		layers = append(layers, l)
	}
	return s, layers
}

func selectAll(t *testing.T, s *scene.Scene, layers []*scene.Layer) {
	t.Helper()
	ids := make([]string, len(layers))
	for i, l := range layers {
		ids[i] = l.ID
	}
	require.NoError(t, s.Select(ids...))
}

func TestNoActiveScene(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()

	_, err := r.CreateController(ctx, nil, "circular")
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveScene))
	_, err = r.ListControllers(ctx, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveScene))
	_, err = r.ApplyBinding(ctx, nil, ApplyRequest{Kind: "circular"})
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveScene))
	_, err = r.Cleanup(ctx, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveScene))
}

func TestCreateAndList(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a", "b")

	c, err := r.CreateController(ctx, s, "circular")
	require.NoError(t, err)
	assert.Equal(t, "Controller", c.Name)
	assert.True(t, c.Created)
	assert.Equal(t, scene.Vec{200}, c.Params[params.MaxRadius])

	selectAll(t, s, layers)
	res, err := r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	require.NoError(t, err)
	assert.Equal(t, "Controller", res.Controller)
	assert.Equal(t, 2, res.Applied)

	list, err := r.ListControllers(ctx, s)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Bound)
	assert.Equal(t, "Controller (2 layers)", list[0].Label)
}

func TestApplyBindingErrors(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a")

	_, err := r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	assert.True(t, errors.Is(err, errors.ErrCodeNoSelection))

	selectAll(t, s, layers)
	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	assert.True(t, errors.Is(err, errors.ErrCodeNoControllers))

	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular", Controller: "Controller 4 (0 layers)"})
	assert.True(t, errors.Is(err, errors.ErrCodeControllerNotFound))

	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "spiral"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind))

	assert.Empty(t, s.UndoSteps(), "failed operations leave no undo step")
}

func TestApplyBindingPicksLastInSceneOrder(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a")
	for i := 0; i < 3; i++ {
		_, err := r.CreateController(ctx, s, "circular")
		require.NoError(t, err)
	}
	selectAll(t, s, layers)

	res, err := r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	require.NoError(t, err)
	assert.Equal(t, "Controller", res.Controller, "hosts insert nulls on top, so the last in scene order is the oldest")
}

func TestApplyBindingRejectsControllerOfOtherKind(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a")
	grid, err := r.CreateController(ctx, s, "grid")
	require.NoError(t, err)
	selectAll(t, s, layers)

	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular", Controller: grid.Name})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind), "explicit label: %v", err)

	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind), "fallback: %v", err)
	assert.Empty(t, s.Bindings())

	// A shared controller repaired for a second kind serves both.
	res, err := r.ApplyBinding(ctx, s, ApplyRequest{Kind: "ydriven"})
	require.NoError(t, err)
	assert.Equal(t, grid.Name, res.Controller)
	res, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "grid", Controller: grid.Name})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
}

func TestApplyBindingYDrivenOffset(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a")
	selectAll(t, s, layers)

	res, err := r.ApplyBinding(ctx, s, ApplyRequest{Kind: "ydriven", OffsetFrames: 15})
	require.NoError(t, err)
	assert.Equal(t, "Controller", res.Controller, "shared kinds create their controller on demand")

	b := s.Bindings()
	require.Len(t, b, 1)
	assert.InDelta(t, 0.5, b[0].OffsetSeconds, 1e-12)
	assert.True(t, b[0].Guard)
	assert.Contains(t, layers[0].Expression(scene.SlotScale), "if (!ctrl)")

	guard := false
	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "ydriven", Guard: &guard})
	require.NoError(t, err)
	assert.NotContains(t, layers[0].Expression(scene.SlotScale), "if (!ctrl)")
}

func TestKindOptionsOverride(t *testing.T) {
	r := newTestRunner(WithKindOptions("circular", KindOptions{Guard: true}))
	ctx := context.Background()
	s, layers := newTestScene(t, "a")
	_, err := r.CreateController(ctx, s, "circular")
	require.NoError(t, err)
	selectAll(t, s, layers)

	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	require.NoError(t, err)
	assert.Contains(t, layers[0].Expression(scene.SlotPosition), "if (!controller)")
	assert.Equal(t, params.PolicyPreserveIfCustomized, r.kindOptions(controller.Circular).Policy)
}

func TestApplySweepListRoundTrip(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a", "b", "c")
	_, err := r.CreateController(ctx, s, "circular")
	require.NoError(t, err)
	selectAll(t, s, layers)
	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	require.NoError(t, err)

	rep, err := r.Cleanup(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Cleaned)
	assert.Equal(t, 1, rep.Deleted)

	list, err := r.ListControllers(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, list)
	for _, l := range s.Layers() {
		assert.False(t, l.HasExpressions(), l.Name)
	}
}

func TestUndoRevertsWholeOperation(t *testing.T) {
	var events []observability.EventType
	bus := observability.NewBus()
	bus.Subscribe(func(_ context.Context, ev observability.Event) { events = append(events, ev.Type) })
	r := NewRunner(controller.NewRegistry(controller.WithBus(bus)), log.NewWithOptions(io.Discard, log.Options{}))
	ctx := context.Background()
	s, layers := newTestScene(t, "a", "b")

	_, err := r.CreateController(ctx, s, "circular")
	require.NoError(t, err)
	selectAll(t, s, layers)
	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	require.NoError(t, err)
	_, err = r.Cleanup(ctx, s)
	require.NoError(t, err)

	name, err := r.Undo(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "Clean up all controllers", name)

	list, err := r.ListControllers(ctx, s)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Bound, "bindings come back with the controller")

	assert.Equal(t, []observability.EventType{
		observability.EventControllerCreated,
		observability.EventBindingsApplied,
		observability.EventSwept,
		observability.EventUndone,
	}, events)

	_, err = r.Undo(ctx, s)
	require.NoError(t, err)
	_, err = r.Undo(ctx, s)
	require.NoError(t, err)
	_, err = r.Undo(ctx, s)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestFormulas(t *testing.T) {
	r := newTestRunner()
	ctx := context.Background()
	s, layers := newTestScene(t, "a")
	_, err := r.CreateController(ctx, s, "circular")
	require.NoError(t, err)
	selectAll(t, s, layers)
	_, err = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "circular"})
	require.NoError(t, err)

	got, err := r.Formulas(ctx, s, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	want, _ := formula.Render(formula.KindCircularScale, "Controller", formula.Options{})
	scale := got[1]
	assert.Equal(t, scene.SlotScale, scale.Slot)
	assert.Equal(t, want, scale.Text)
	require.NotNil(t, scale.Binding)
	assert.Equal(t, scene.Vec{100, 100}, scale.Value)

	_, err = r.Formulas(ctx, s, "missing", 0)
	assert.True(t, errors.Is(err, errors.ErrCodeLayerNotFound))
}

type recordingHooks struct {
	ops []string
}

func (h *recordingHooks) OnOperationStart(context.Context, string, string) {}

func (h *recordingHooks) OnOperationComplete(_ context.Context, op, _ string, _ int, _ time.Duration, err error) {
	if err != nil {
		op += "!"
	}
	h.ops = append(h.ops, op)
}

func TestHooks(t *testing.T) {
	h := &recordingHooks{}
	r := newTestRunner(WithHooks(h))
	ctx := context.Background()
	s, _ := newTestScene(t)

	_, _ = r.CreateController(ctx, s, "grid")
	_, _ = r.ApplyBinding(ctx, s, ApplyRequest{Kind: "grid"})
	_, _ = r.Cleanup(ctx, s)
	assert.Equal(t, []string{"create_controller", "apply_binding!", "cleanup"}, h.ops)
}
