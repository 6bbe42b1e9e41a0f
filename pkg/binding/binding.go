// Package binding connects consumer layers to controllers.
//
// A binding is a [scene.Binding] record stored in the document: consumer,
// slot, controller, formula kind, and render options. The record is the
// source of truth; the formula text written into the consumer's slot is
// rendered from it with [formula.RenderBinding]. Rebinding a slot replaces
// both the record and the text wholesale.
package binding

import (
	"regexp"
	"strconv"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/formula"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Resolver binds consumers to controllers found through a registry.
type Resolver struct {
	Registry *controller.Registry
}

// NewResolver returns a resolver over reg. A nil registry uses the default
// prefix.
func NewResolver(reg *controller.Registry) *Resolver {
	if reg == nil {
		reg = controller.NewRegistry()
	}
	return &Resolver{Registry: reg}
}

// Result summarizes a Bind call. Failures hold one *errors.LayerError per
// consumer slot that could not be written.
type Result struct {
	Applied  int
	Skipped  int
	Failures []error
}

// Bind writes the formulas of kinds onto every consumer and records a
// binding per written slot. The controller itself is never bound, and
// 3D-only formulas skip 2D consumers. A failing slot is recorded and the
// batch continues.
func (r *Resolver) Bind(doc scene.Document, consumers []*scene.Layer, ctrl *scene.Layer, kinds []formula.Kind, opts formula.Options) (*Result, error) {
	if ctrl == nil {
		return nil, errors.New(errors.ErrCodeControllerNotFound, "no controller to bind to")
	}
	infos := make([]formula.Info, len(kinds))
	for i, k := range kinds {
		info, err := formula.Lookup(k)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}

	res := &Result{}
	for _, l := range consumers {
		if l.ID == ctrl.ID {
			res.Skipped++
			continue
		}
		wrote := false
		for i, k := range kinds {
			if infos[i].Only3D && !l.ThreeD {
				continue
			}
			b := scene.Binding{
				ConsumerID:     l.ID,
				ControllerID:   ctrl.ID,
				ControllerName: ctrl.Name,
				Slot:           infos[i].Slot,
				Formula:        string(k),
				OffsetSeconds:  opts.OffsetSeconds,
				Guard:          opts.Guard,
			}
			if err := Write(doc, b); err != nil {
				res.Failures = append(res.Failures, &errors.LayerError{Layer: l.Name, Op: "bind", Err: err})
				continue
			}
			wrote = true
		}
		if wrote {
			res.Applied++
		}
	}
	return res, nil
}

// Write renders b into its consumer slot and stores the record.
func Write(doc scene.Document, b scene.Binding) error {
	text, err := formula.RenderBinding(b)
	if err != nil {
		return err
	}
	if err := doc.SetExpression(b.ConsumerID, b.Slot, text); err != nil {
		return err
	}
	doc.PutBinding(b)
	return nil
}

// CountBound returns how many distinct non-controller layers have at least
// one binding that names the controller. Records in any slot count, not only
// position, so grid and Y-driven consumers (which bind scale alone) are
// counted too.
func (r *Resolver) CountBound(doc scene.Document, controllerName string) int {
	seen := make(map[string]bool)
	for _, b := range doc.Bindings() {
		if b.ControllerName != controllerName || seen[b.ConsumerID] {
			continue
		}
		l, ok := doc.LayerByID(b.ConsumerID)
		if !ok || r.Registry.IsController(l) {
			continue
		}
		seen[b.ConsumerID] = true
	}
	return len(seen)
}

// BoundTo returns the bindings naming the controller, in storage order.
func BoundTo(doc scene.Document, controllerName string) []scene.Binding {
	var out []scene.Binding
	for _, b := range doc.Bindings() {
		if b.ControllerName == controllerName {
			out = append(out, b)
		}
	}
	return out
}

// ForConsumer returns the bindings of one consumer layer.
func ForConsumer(doc scene.Document, consumerID string) []scene.Binding {
	var out []scene.Binding
	for _, b := range doc.Bindings() {
		if b.ConsumerID == consumerID {
			out = append(out, b)
		}
	}
	return out
}

var labelSuffix = regexp.MustCompile(` \(\d+ layers\)$`)

// DisplayLabel formats a controller for a picker: "Controller 2 (3 layers)".
func DisplayLabel(name string, count int) string {
	return name + " (" + strconv.Itoa(count) + " layers)"
}

// StripLabel removes a DisplayLabel suffix, returning the controller name.
func StripLabel(label string) string {
	return labelSuffix.ReplaceAllString(label, "")
}

// ResolveSelection maps a picker label or bare name back to its controller.
func (r *Resolver) ResolveSelection(doc scene.Document, label string) (*scene.Layer, error) {
	return r.Registry.Get(doc, StripLabel(label))
}

// SelectedConsumers returns the selected layers in scene order.
func SelectedConsumers(doc scene.Document) ([]*scene.Layer, error) {
	sel := doc.Selected()
	if len(sel) == 0 {
		return nil, errors.New(errors.ErrCodeNoSelection, "select at least one layer")
	}
	return sel, nil
}
