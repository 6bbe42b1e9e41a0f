// Package cleanup removes every controller rig from a document.
//
// A sweep clears the formulas of every consumer, deletes every controller,
// and drops the binding records of every cleared slot. Per-layer failures are collected in the
// [Report] and never abort the sweep.
package cleanup

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/observability"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Report summarizes a sweep.
type Report struct {
	Cleaned  int     `json:"cleaned"`
	Deleted  int     `json:"deleted"`
	Failures []error `json:"-"`
}

// FailureMessages returns the failures as strings, for display and JSON.
func (r *Report) FailureMessages() []string {
	out := make([]string, len(r.Failures))
	for i, err := range r.Failures {
		out[i] = err.Error()
	}
	return out
}

// Coordinator sweeps controllers found through a registry.
type Coordinator struct {
	Registry *controller.Registry
	Logger   *log.Logger
}

// New returns a coordinator. A nil registry uses the default prefix and a
// nil logger uses log.Default().
func New(reg *controller.Registry, logger *log.Logger) *Coordinator {
	if reg == nil {
		reg = controller.NewRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{Registry: reg, Logger: logger}
}

// Sweep clears all consumers, deletes all controllers, and drops the
// binding records of cleared slots. A consumer whose clear fails keeps the
// records of the slots that still carry formula text. The caller owns the
// undo group.
func (c *Coordinator) Sweep(ctx context.Context, doc scene.Document) *Report {
	rep := &Report{}
	controllers := c.Registry.FindAll(doc)
	consumers := c.consumers(doc)
	failed := make(map[string]*scene.Layer)

	for _, l := range consumers {
		if err := clearSlots(doc, l); err != nil {
			c.Logger.Warn("clear failed", "layer", l.Name, "error", err)
			rep.Failures = append(rep.Failures, &errors.LayerError{Layer: l.Name, Op: "clear", Err: err})
			failed[l.ID] = l
			continue
		}
		rep.Cleaned++
	}

	for _, l := range controllers {
		if err := doc.RemoveLayer(l.ID); err != nil {
			c.Logger.Warn("delete failed", "layer", l.Name, "error", err)
			rep.Failures = append(rep.Failures, &errors.LayerError{Layer: l.Name, Op: "delete", Err: err})
			continue
		}
		rep.Deleted++
	}

	dropped := doc.RemoveBindings(func(b scene.Binding) bool {
		l, ok := failed[b.ConsumerID]
		return !ok || l.Expression(b.Slot) == ""
	})
	c.Logger.Debug("swept scene",
		"scene", doc.Name(),
		"cleaned", rep.Cleaned,
		"deleted", rep.Deleted,
		"bindings", dropped,
		"failures", len(rep.Failures))

	c.Registry.Bus().Emit(ctx, observability.Event{
		Type:  observability.EventSwept,
		Scene: doc.Name(),
		Count: rep.Cleaned + rep.Deleted,
	})
	return rep
}

// consumers returns the non-controller layers that carry a binding record
// or whose formula text references a prefixed controller.
func (c *Coordinator) consumers(doc scene.Document) []*scene.Layer {
	bound := make(map[string]bool)
	for _, b := range doc.Bindings() {
		bound[b.ConsumerID] = true
	}
	ref := `thisComp.layer("` + c.Registry.Prefix()

	var out []*scene.Layer
	for _, l := range doc.Layers() {
		if c.Registry.IsController(l) {
			continue
		}
		if bound[l.ID] || referencesController(l, ref) {
			out = append(out, l)
		}
	}
	return out
}

func referencesController(l *scene.Layer, ref string) bool {
	for _, slot := range scene.Slots {
		if strings.Contains(l.Expression(slot), ref) {
			return true
		}
	}
	return false
}

// clearSlots empties every slot the layer has.
func clearSlots(doc scene.Document, l *scene.Layer) error {
	for _, slot := range scene.Slots {
		if !l.HasSlot(slot) {
			continue
		}
		if err := doc.SetExpression(l.ID, slot, ""); err != nil {
			return err
		}
	}
	return nil
}
