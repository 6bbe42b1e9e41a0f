package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/riglink/pkg/cache"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/scene"
)

func TestScenesCreateLoad(t *testing.T) {
	ctx := context.Background()
	scenes := NewScenes(NewMemoryStore())

	s, err := scenes.Create(ctx, scene.Config{Name: "comp", Width: 1280, Height: 720})
	require.NoError(t, err)
	_, err = scenes.Create(ctx, scene.Config{Name: "comp"})
	assert.True(t, errors.Is(err, errors.ErrCodeDuplicate))

	got, err := scenes.Load(ctx, "comp")
	require.NoError(t, err)
	assert.Equal(t, s.Width(), got.Width())

	_, err = scenes.Load(ctx, "other")
	assert.True(t, errors.Is(err, errors.ErrCodeSceneNotFound))
}

func TestScenesSaveHistory(t *testing.T) {
	ctx := context.Background()
	scenes := NewScenes(NewMemoryStore())
	s, err := scenes.Create(ctx, scene.Config{Name: "comp"})
	require.NoError(t, err)

	_, err = s.AddLayer(scene.LayerSpec{Name: "a"})
	require.NoError(t, err)
	first, err := scenes.Save(ctx, s, "Add a")
	require.NoError(t, err)

	again, err := scenes.Save(ctx, s, "Add a")
	require.NoError(t, err)
	assert.Equal(t, first.ETag, again.ETag)

	_, err = s.AddLayer(scene.LayerSpec{Name: "b"})
	require.NoError(t, err)
	_, err = scenes.Save(ctx, s, "Add b")
	require.NoError(t, err)

	steps, err := scenes.Steps(ctx, "comp")
	require.NoError(t, err)
	assert.Equal(t, []string{"Add a", "Add b"}, steps, "unchanged saves record no step")

	restored, name, err := scenes.Undo(ctx, "comp")
	require.NoError(t, err)
	assert.Equal(t, "Add b", name)
	assert.Len(t, restored.Layers(), 1)

	restored, _, err = scenes.Undo(ctx, "comp")
	require.NoError(t, err)
	assert.Empty(t, restored.Layers())

	_, _, err = scenes.Undo(ctx, "comp")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	// After undo, saving the restored scene unchanged is still a no-op.
	rec, err := scenes.Save(ctx, restored, "noop")
	require.NoError(t, err)
	steps, _ = scenes.Steps(ctx, "comp")
	assert.Empty(t, steps)
	assert.Equal(t, cache.Hash(rec.Data), rec.ETag)
}

func TestScenesHistoryBounded(t *testing.T) {
	ctx := context.Background()
	scenes := NewScenes(NewMemoryStore())
	s, err := scenes.Create(ctx, scene.Config{Name: "comp"})
	require.NoError(t, err)
	for i := 0; i < MaxHistory+5; i++ {
		_, err := s.AddLayer(scene.LayerSpec{Name: "l"})
		require.NoError(t, err)
		_, err = scenes.Save(ctx, s, "step")
		require.NoError(t, err)
	}
	steps, err := scenes.Steps(ctx, "comp")
	require.NoError(t, err)
	assert.Len(t, steps, MaxHistory)
}
