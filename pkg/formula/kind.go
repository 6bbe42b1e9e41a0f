package formula

import (
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Kind identifies a formula variant.
type Kind string

const (
	KindCircularPosition Kind = "circular-position"
	KindCircularScale    Kind = "circular-scale"
	KindGridScale        Kind = "grid-scale"
	KindGridZOffset      Kind = "grid-z-offset"
	KindYDrivenScale     Kind = "ydriven-scale"
)

// Info describes where a formula kind is written and what it reads.
type Info struct {
	Slot   scene.Slot
	Params []string // controller parameters the formula reads
	Only3D bool     // applied to 3D layers only
}

var kinds = map[Kind]Info{
	KindCircularPosition: {
		Slot:   scene.SlotPosition,
		Params: []string{params.GrowDuration, params.MaxRadius, params.RevolutionsPerSecond, params.LayerDelay},
	},
	KindCircularScale: {
		Slot:   scene.SlotScale,
		Params: []string{params.GrowDuration, params.LayerDelay},
	},
	KindGridScale: {
		Slot:   scene.SlotScale,
		Params: []string{params.MaxDistance, params.MinScale, params.MaxScale},
	},
	KindGridZOffset: {
		Slot:   scene.SlotPosition,
		Params: []string{params.ZOffset},
		Only3D: true,
	},
	KindYDrivenScale: {
		Slot:   scene.SlotScale,
		Params: []string{params.MinValue, params.MaxValue, params.StartPos},
	},
}

// Lookup returns the description of a kind.
func Lookup(k Kind) (Info, error) {
	info, ok := kinds[k]
	if !ok {
		return Info{}, errors.New(errors.ErrCodeInvalidKind, "unknown formula kind %q", k)
	}
	return info, nil
}

// Kinds returns every formula kind in a fixed order.
func Kinds() []Kind {
	return []Kind{KindCircularPosition, KindCircularScale, KindGridScale, KindGridZOffset, KindYDrivenScale}
}

// Options parametrize a rendered formula.
type Options struct {
	// Guard falls back to the property's value when the controller is gone.
	Guard bool

	// OffsetSeconds shifts the evaluation time back (Y-driven only).
	OffsetSeconds float64
}
