package rig

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/riglink/pkg/binding"
	"github.com/matzehuels/riglink/pkg/cleanup"
	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/formula"
	"github.com/matzehuels/riglink/pkg/observability"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Runner executes rig operations against a document.
//
// The Runner holds no document state. A single Runner may serve many
// documents, but each document must have a single writer at a time.
type Runner struct {
	Registry *controller.Registry
	Resolver *binding.Resolver
	Cleaner  *cleanup.Coordinator
	Hooks    observability.Hooks
	Logger   *log.Logger
	Kinds    map[string]KindOptions
}

// Option configures a Runner.
type Option func(*Runner)

// WithHooks sets the operation hooks.
func WithHooks(h observability.Hooks) Option {
	return func(r *Runner) {
		if h != nil {
			r.Hooks = h
		}
	}
}

// WithKindOptions overrides the settings of one kind.
func WithKindOptions(kind string, opts KindOptions) Option {
	return func(r *Runner) { r.Kinds[kind] = opts }
}

// NewRunner creates a runner over reg.
// If reg is nil, a registry with the default prefix is used.
// If logger is nil, log.Default() is used.
func NewRunner(reg *controller.Registry, logger *log.Logger, opts ...Option) *Runner {
	if reg == nil {
		reg = controller.NewRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Registry: reg,
		Resolver: binding.NewResolver(reg),
		Cleaner:  cleanup.New(reg, logger),
		Hooks:    observability.NoopHooks{},
		Logger:   logger,
		Kinds:    DefaultKindOptions(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) kindOptions(k controller.Kind) KindOptions {
	if o, ok := r.Kinds[k.Name]; ok {
		if o.Policy == "" {
			o.Policy = k.DefaultPolicy
		}
		return o
	}
	return KindOptions{Policy: k.DefaultPolicy, Guard: k.DefaultGuard}
}

// observe runs fn between the start and complete hooks.
func (r *Runner) observe(ctx context.Context, op string, doc scene.Document, fn func() (int, error)) error {
	name := ""
	if doc != nil {
		name = doc.Name()
	}
	r.Hooks.OnOperationStart(ctx, op, name)
	start := time.Now()
	n, err := fn()
	r.Hooks.OnOperationComplete(ctx, op, name, n, time.Since(start), err)
	return err
}

func requireDoc(doc scene.Document) error {
	if doc == nil {
		return errors.New(errors.ErrCodeNoActiveScene, "open or create a scene first")
	}
	return nil
}

// =============================================================================
// Controllers
// =============================================================================

// CreateController acquires a controller of the given kind. Unique kinds
// always create a new controller; shared kinds reuse the existing one and
// repair its parameters under the kind's upgrade policy.
func (r *Runner) CreateController(ctx context.Context, doc scene.Document, kindName string) (*Controller, error) {
	var out *Controller
	err := r.observe(ctx, "create_controller", doc, func() (int, error) {
		if err := requireDoc(doc); err != nil {
			return 0, err
		}
		kind, err := controller.LookupKind(kindName)
		if err != nil {
			return 0, err
		}

		end := doc.BeginUndoGroup("Create " + kind.Name + " controller")
		defer end()

		l, created, err := r.Registry.Acquire(ctx, doc, kind, r.kindOptions(kind).Policy)
		if err != nil {
			return 0, err
		}
		out = &Controller{
			ID:      l.ID,
			Name:    l.Name,
			Kind:    kind.Name,
			Created: created,
			Params:  params.Values(l),
		}
		r.Logger.Info("controller ready", "scene", doc.Name(), "controller", l.Name, "kind", kind.Name, "created", created)
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListControllers returns every controller with its bound-layer count.
func (r *Runner) ListControllers(ctx context.Context, doc scene.Document) ([]ControllerInfo, error) {
	if err := requireDoc(doc); err != nil {
		return nil, err
	}
	ctrls := r.Registry.FindAll(doc)
	out := make([]ControllerInfo, 0, len(ctrls))
	for _, l := range ctrls {
		n := r.Resolver.CountBound(doc, l.Name)
		out = append(out, ControllerInfo{
			ID:     l.ID,
			Name:   l.Name,
			Bound:  n,
			Label:  binding.DisplayLabel(l.Name, n),
			Params: params.Values(l),
		})
	}
	return out, nil
}

// =============================================================================
// Bindings
// =============================================================================

// ApplyBinding binds the selected layers to a controller. Per-layer
// failures are reported in the result and do not fail the call.
func (r *Runner) ApplyBinding(ctx context.Context, doc scene.Document, req ApplyRequest) (*ApplyResult, error) {
	var out *ApplyResult
	err := r.observe(ctx, "apply_binding", doc, func() (int, error) {
		if err := requireDoc(doc); err != nil {
			return 0, err
		}
		kind, err := controller.LookupKind(req.Kind)
		if err != nil {
			return 0, err
		}
		consumers, err := binding.SelectedConsumers(doc)
		if err != nil {
			return 0, err
		}

		end := doc.BeginUndoGroup("Apply " + kind.Name + " formulas")
		defer end()

		ko := r.kindOptions(kind)
		ctrl, err := r.resolveController(ctx, doc, kind, ko, req.Controller)
		if err != nil {
			return 0, err
		}

		opts := formula.Options{Guard: ko.Guard, OffsetSeconds: req.OffsetFrames * doc.FrameDuration()}
		if req.Guard != nil {
			opts.Guard = *req.Guard
		}
		res, err := r.Resolver.Bind(doc, consumers, ctrl, kind.Formulas, opts)
		if err != nil {
			return 0, err
		}
		out = &ApplyResult{
			Controller: ctrl.Name,
			Applied:    res.Applied,
			Skipped:    res.Skipped,
			Failures:   res.Failures,
		}

		for _, f := range res.Failures {
			r.Logger.Warn("binding failed", "error", f)
		}
		r.Logger.Info("applied formulas",
			"scene", doc.Name(),
			"controller", ctrl.Name,
			"kind", kind.Name,
			"applied", res.Applied,
			"failed", len(res.Failures))

		r.Registry.Bus().Emit(ctx, observability.Event{
			Type:       observability.EventBindingsApplied,
			Scene:      doc.Name(),
			Controller: ctrl.Name,
			Count:      res.Applied,
		})
		return res.Applied, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) resolveController(ctx context.Context, doc scene.Document, kind controller.Kind, ko KindOptions, label string) (*scene.Layer, error) {
	var l *scene.Layer
	switch {
	case label != "":
		var err error
		if l, err = r.Resolver.ResolveSelection(doc, label); err != nil {
			return nil, err
		}
	case kind.Naming == controller.NamingShared:
		l, _, err := r.Registry.FindOrCreate(ctx, doc, r.Registry.Prefix(), kind, ko.Policy)
		return l, err
	default:
		all := r.Registry.FindAll(doc)
		if len(all) == 0 {
			return nil, errors.New(errors.ErrCodeNoControllers, "create a controller first")
		}
		l = all[len(all)-1]
	}
	if !kind.Supports(l) {
		return nil, errors.New(errors.ErrCodeInvalidKind, "controller %q has no %s parameters", l.Name, kind.Name)
	}
	return l, nil
}

// Formulas returns the formula state of every slot of a layer, evaluated
// at time t.
func (r *Runner) Formulas(ctx context.Context, doc scene.Document, layerID string, t float64) ([]SlotFormula, error) {
	if err := requireDoc(doc); err != nil {
		return nil, err
	}
	l, ok := doc.LayerByID(layerID)
	if !ok {
		l, ok = doc.LayerByName(layerID)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %q not found", layerID)
	}

	records := make(map[scene.Slot]scene.Binding)
	for _, b := range binding.ForConsumer(doc, l.ID) {
		records[b.Slot] = b
	}

	var out []SlotFormula
	for _, slot := range scene.Slots {
		if !l.HasSlot(slot) {
			continue
		}
		sf := SlotFormula{Slot: slot, Text: l.Expression(slot)}
		if b, ok := records[slot]; ok {
			sf.Binding = &b
			v, err := formula.EvaluateBinding(doc, b, t)
			if err != nil {
				sf.Error = errors.UserMessage(err)
			} else {
				sf.Value = v
			}
		}
		out = append(out, sf)
	}
	return out, nil
}

// Recover rebuilds binding records from formula text.
func (r *Runner) Recover(ctx context.Context, doc scene.Document) (int, error) {
	var n int
	err := r.observe(ctx, "recover", doc, func() (int, error) {
		if err := requireDoc(doc); err != nil {
			return 0, err
		}
		end := doc.BeginUndoGroup("Recover bindings")
		defer end()
		n = r.Resolver.Recover(doc)
		if n > 0 {
			r.Logger.Info("recovered bindings", "scene", doc.Name(), "count", n)
		}
		return n, nil
	})
	return n, err
}

// =============================================================================
// Cleanup and Undo
// =============================================================================

// Cleanup removes every controller and clears every consumer.
func (r *Runner) Cleanup(ctx context.Context, doc scene.Document) (*cleanup.Report, error) {
	var rep *cleanup.Report
	err := r.observe(ctx, "cleanup", doc, func() (int, error) {
		if err := requireDoc(doc); err != nil {
			return 0, err
		}
		end := doc.BeginUndoGroup("Clean up all controllers")
		defer end()

		rep = r.Cleaner.Sweep(ctx, doc)
		r.Logger.Info("cleaned up controllers",
			"scene", doc.Name(),
			"cleaned", rep.Cleaned,
			"deleted", rep.Deleted,
			"failed", len(rep.Failures))
		return rep.Cleaned + rep.Deleted, nil
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Undoer is a document with an undo stack.
type Undoer interface {
	Undo() (string, bool)
}

// Undo reverts the most recent operation and returns its name.
func (r *Runner) Undo(ctx context.Context, doc scene.Document) (string, error) {
	var name string
	err := r.observe(ctx, "undo", doc, func() (int, error) {
		if err := requireDoc(doc); err != nil {
			return 0, err
		}
		u, ok := doc.(Undoer)
		if !ok {
			return 0, errors.New(errors.ErrCodeUnsupported, "document has no undo history")
		}
		n, ok := u.Undo()
		if !ok {
			return 0, errors.New(errors.ErrCodeNotFound, "nothing to undo")
		}
		name = n
		r.Logger.Info("undone", "scene", doc.Name(), "step", n)
		r.Registry.Bus().Emit(ctx, observability.Event{Type: observability.EventUndone, Scene: doc.Name()})
		return 1, nil
	})
	return name, err
}
