package formula

import (
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// OptionsFor returns the render options stored on a binding.
func OptionsFor(b scene.Binding) Options {
	return Options{Guard: b.Guard, OffsetSeconds: b.OffsetSeconds}
}

// RenderBinding projects a binding record to its formula text.
func RenderBinding(b scene.Binding) (string, error) {
	return Render(Kind(b.Formula), b.ControllerName, OptionsFor(b))
}

// FrameAt builds the frame a host would evaluate the binding's formula in at
// time t. The controller is resolved by name, as the formula text does.
func FrameAt(doc scene.Document, b scene.Binding, t float64) (Frame, error) {
	l, ok := doc.LayerByID(b.ConsumerID)
	if !ok {
		return Frame{}, errors.New(errors.ErrCodeLayerNotFound, "consumer %s not found", b.ConsumerID)
	}
	f := Frame{
		Time:     t,
		Index:    doc.Index(l.ID),
		Center:   scene.Vec{float64(doc.Width()) / 2, float64(doc.Height()) / 2},
		Dim:      l.Dim(),
		Value:    l.Value(b.Slot).Clone(),
		Position: Static(l.Position),
	}
	if ctrl, ok := doc.LayerByName(b.ControllerName); ok {
		f.Controller = &ControllerState{
			Params:   params.Values(ctrl),
			Position: Static(ctrl.Position),
		}
	}
	return f, nil
}

// EvaluateBinding evaluates a stored binding at time t.
func EvaluateBinding(doc scene.Document, b scene.Binding, t float64) (scene.Vec, error) {
	f, err := FrameAt(doc, b, t)
	if err != nil {
		return nil, err
	}
	return Evaluate(Kind(b.Formula), OptionsFor(b), f)
}
