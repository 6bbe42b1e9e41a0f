package formula

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/riglink/pkg/errors"
)

func TestRenderGolden(t *testing.T) {
	tests := []struct {
		golden     string
		kind       Kind
		controller string
		opts       Options
	}{
		{"circular_position", KindCircularPosition, "Controller 2", Options{}},
		{"circular_position_guarded", KindCircularPosition, "Controller", Options{Guard: true}},
		{"circular_scale", KindCircularScale, "Controller 2", Options{}},
		{"grid_scale", KindGridScale, "Controller", Options{}},
		{"grid_z_offset", KindGridZOffset, "Controller", Options{}},
		{"ydriven_scale", KindYDrivenScale, "Controller", Options{Guard: true, OffsetSeconds: 0.5}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			text, err := Render(tt.kind, tt.controller, tt.opts)
			require.NoError(t, err)
			g.Assert(t, tt.golden, []byte(text))
		})
	}
}

func TestRenderReferencesController(t *testing.T) {
	for _, k := range Kinds() {
		text, err := Render(k, "Controller 7", Options{})
		require.NoError(t, err)
		assert.Contains(t, text, ControllerRef("Controller 7"), k)
	}
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	_, err := Render("wobble", "Controller", Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind))
}

func TestRenderRebindReplacesReference(t *testing.T) {
	b, err := Render(KindCircularScale, "Controller 1", Options{})
	require.NoError(t, err)
	assert.NotContains(t, b, ControllerRef("Controller")+";")
}

func TestRenderOffsetFormatting(t *testing.T) {
	tests := []struct {
		offset float64
		want   string
	}{
		{0, "var t = time - 0;"},
		{0.5, "var t = time - 0.5;"},
		{-1.25, "var t = time - -1.25;"},
	}
	for _, tt := range tests {
		text, err := Render(KindYDrivenScale, "Controller", Options{OffsetSeconds: tt.offset})
		require.NoError(t, err)
		assert.Contains(t, text, tt.want)
	}
}

func TestQuoteEscapes(t *testing.T) {
	assert.Equal(t, `"a\"b\\c"`, quote(`a"b\c`))
}
