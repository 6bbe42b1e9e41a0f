package io

import (
	"fmt"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Version is the document format version written by this package.
const Version = 1

type document struct {
	Version       int             `json:"version" yaml:"version"`
	Name          string          `json:"name" yaml:"name"`
	Width         int             `json:"width" yaml:"width"`
	Height        int             `json:"height" yaml:"height"`
	FrameDuration float64         `json:"frame_duration" yaml:"frame_duration"`
	Layers        []layer         `json:"layers" yaml:"layers"`
	Selection     []string        `json:"selection,omitempty" yaml:"selection,omitempty"`
	Bindings      []scene.Binding `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

type layer struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Kind        string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Label       int               `json:"label,omitempty" yaml:"label,omitempty"`
	ThreeD      bool              `json:"three_d,omitempty" yaml:"three_d,omitempty"`
	Position    scene.Vec         `json:"position,omitempty" yaml:"position,omitempty,flow"`
	AnchorPoint scene.Vec         `json:"anchor_point,omitempty" yaml:"anchor_point,omitempty,flow"`
	Scale       scene.Vec         `json:"scale,omitempty" yaml:"scale,omitempty,flow"`
	Effects     []scene.Effect    `json:"effects,omitempty" yaml:"effects,omitempty"`
	Expressions map[string]string `json:"expressions,omitempty" yaml:"expressions,omitempty"`
}

func fromScene(s *scene.Scene) document {
	doc := document{
		Version:       Version,
		Name:          s.Name(),
		Width:         s.Width(),
		Height:        s.Height(),
		FrameDuration: s.FrameDuration(),
		Bindings:      s.Bindings(),
	}
	for _, l := range s.Layers() {
		ld := layer{
			ID:          l.ID,
			Name:        l.Name,
			Kind:        string(l.Kind),
			Label:       l.Label,
			ThreeD:      l.ThreeD,
			Position:    l.Position,
			AnchorPoint: l.AnchorPoint,
			Scale:       l.Scale,
			Effects:     l.Effects,
		}
		for slot, text := range l.Expressions {
			if text == "" {
				continue
			}
			if ld.Expressions == nil {
				ld.Expressions = make(map[string]string)
			}
			ld.Expressions[string(slot)] = text
		}
		doc.Layers = append(doc.Layers, ld)
	}
	for _, l := range s.Selected() {
		doc.Selection = append(doc.Selection, l.ID)
	}
	return doc
}

func (d document) toScene() (*scene.Scene, error) {
	if d.Version != 0 && d.Version != Version {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document version %d", d.Version)
	}
	s, err := scene.New(scene.Config{
		Name:          d.Name,
		Width:         d.Width,
		Height:        d.Height,
		FrameDuration: d.FrameDuration,
	})
	if err != nil {
		return nil, err
	}

	for _, ld := range d.Layers {
		if err := errors.ValidateLayerName(ld.Name); err != nil {
			return nil, fmt.Errorf("layer %s: %w", ld.ID, err)
		}
		kind := scene.LayerKind(ld.Kind)
		if kind == "" {
			kind = scene.KindAV
		}
		if !scene.ValidLayerKinds[kind] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "layer %q: unknown kind %q", ld.Name, ld.Kind)
		}
		l := &scene.Layer{
			ID:          ld.ID,
			Name:        ld.Name,
			Label:       ld.Label,
			Kind:        kind,
			ThreeD:      ld.ThreeD,
			Position:    fit(ld.Position, ld.ThreeD, s.Center()),
			AnchorPoint: fit(ld.AnchorPoint, ld.ThreeD, nil),
			Scale:       fit(ld.Scale, ld.ThreeD, scene.Vec{100, 100, 100}),
			Effects:     ld.Effects,
			Expressions: make(map[scene.Slot]string, len(ld.Expressions)),
		}
		for slot, text := range ld.Expressions {
			sl := scene.Slot(slot)
			if !l.HasSlot(sl) {
				return nil, errors.New(errors.ErrCodePropertyUnavailable, "layer %q has no %s property", ld.Name, slot)
			}
			l.Expressions[sl] = text
		}
		if err := s.InsertLayer(l); err != nil {
			return nil, fmt.Errorf("layer %q: %w", ld.Name, err)
		}
	}

	if err := s.Select(d.Selection...); err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}
	for _, b := range d.Bindings {
		if _, ok := s.LayerByID(b.ConsumerID); !ok {
			return nil, errors.New(errors.ErrCodeLayerNotFound, "binding %s: consumer %s not found", b.ID, b.ConsumerID)
		}
		s.PutBinding(b)
	}
	return s, nil
}

// fit sizes v to the layer's dimensionality, using def when v is empty.
func fit(v scene.Vec, threeD bool, def scene.Vec) scene.Vec {
	n := 2
	if threeD {
		n = 3
	}
	if len(v) == 0 {
		v = def
	}
	out := make(scene.Vec, n)
	copy(out, v)
	return out
}
