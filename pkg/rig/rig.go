// Package rig exposes the controller operations a UI calls.
//
// A [Runner] ties the controller registry, binding resolver, and cleanup
// coordinator together. Every mutating call runs inside one undo group on
// the document, so a host undo reverts the whole operation.
//
// # Usage
//
//	runner := rig.NewRunner(controller.NewRegistry(controller.WithBus(bus)), logger)
//	ctrl, err := runner.CreateController(ctx, doc, "circular")
//	...
//	res, err := runner.ApplyBinding(ctx, doc, rig.ApplyRequest{Kind: "circular", Controller: ctrl.Name})
package rig

import (
	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// =============================================================================
// Kind Options
// =============================================================================

// KindOptions are the per-kind settings a deployment may override.
type KindOptions struct {
	Policy params.Policy `json:"policy" toml:"policy"`
	Guard  bool          `json:"guard" toml:"guard"`
}

// DefaultKindOptions returns the built-in settings for every kind.
func DefaultKindOptions() map[string]KindOptions {
	out := make(map[string]KindOptions)
	for _, k := range controller.Kinds() {
		out[k.Name] = KindOptions{Policy: k.DefaultPolicy, Guard: k.DefaultGuard}
	}
	return out
}

// =============================================================================
// Requests and Results
// =============================================================================

// ApplyRequest selects what ApplyBinding binds the current selection to.
type ApplyRequest struct {
	// Kind is the controller kind: "circular", "grid" or "ydriven".
	Kind string `json:"kind"`

	// Controller is a controller name or picker label. Empty picks the
	// most recent controller for unique kinds and the shared controller
	// for shared kinds.
	Controller string `json:"controller,omitempty"`

	// OffsetFrames delays Y-driven formulas by this many frames.
	OffsetFrames float64 `json:"offset_frames,omitempty"`

	// Guard overrides the kind's guard setting when set.
	Guard *bool `json:"guard,omitempty"`
}

// Controller describes a controller returned by CreateController.
type Controller struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Kind    string               `json:"kind"`
	Created bool                 `json:"created"`
	Params  map[string]scene.Vec `json:"params"`
}

// ControllerInfo is one row of ListControllers.
type ControllerInfo struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Bound  int                  `json:"bound"`
	Label  string               `json:"label"`
	Params map[string]scene.Vec `json:"params"`
}

// ApplyResult reports a binding batch.
type ApplyResult struct {
	Controller string  `json:"controller"`
	Applied    int     `json:"applied"`
	Skipped    int     `json:"skipped"`
	Failures   []error `json:"-"`
}

// FailureMessages returns the failures as strings.
func (r *ApplyResult) FailureMessages() []string {
	out := make([]string, len(r.Failures))
	for i, err := range r.Failures {
		out[i] = err.Error()
	}
	return out
}

// SlotFormula is the formula state of one slot of a layer.
type SlotFormula struct {
	Slot    scene.Slot     `json:"slot"`
	Text    string         `json:"text"`
	Binding *scene.Binding `json:"binding,omitempty"`
	Value   scene.Vec      `json:"value,omitempty"` // evaluated at the requested time
	Error   string         `json:"error,omitempty"`
}
