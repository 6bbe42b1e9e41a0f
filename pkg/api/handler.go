// Package api provides the riglink HTTP JSON API.
//
// Each request loads its scene from a [store.Scenes], runs one [rig.Runner]
// operation and saves the scene back under a named undo step, so
// POST /scenes/{scene}/undo reverts exactly one request. Mutations of the
// same scene are serialized; different scenes proceed in parallel.
//
// # Routes
//
//	GET    /health
//	GET    /scenes
//	POST   /scenes
//	GET    /scenes/{scene}
//	DELETE /scenes/{scene}
//	POST   /scenes/{scene}/layers
//	PUT    /scenes/{scene}/selection
//	GET    /scenes/{scene}/controllers
//	POST   /scenes/{scene}/controllers
//	POST   /scenes/{scene}/bindings
//	POST   /scenes/{scene}/recover
//	POST   /scenes/{scene}/cleanup
//	POST   /scenes/{scene}/undo
//	GET    /scenes/{scene}/layers/{layer}/formulas?t=1.5
//	GET    /scenes/{scene}/graph?format=svg
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/observability"
	"github.com/matzehuels/riglink/pkg/render"
	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/scene"
	"github.com/matzehuels/riglink/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the API routes.
type Handler struct {
	scenes *store.Scenes
	runner *rig.Runner
	logger *log.Logger
	locks  *sceneLocks
}

// NewHandler creates a handler. If logger is nil, log.Default() is used.
func NewHandler(scenes *store.Scenes, runner *rig.Runner, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		scenes: scenes,
		runner: runner,
		logger: logger,
		locks:  newSceneLocks(),
	}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/health", h.Health)

	r.Route("/scenes", func(r chi.Router) {
		r.Get("/", h.ListScenes)
		r.Post("/", h.CreateScene)

		r.Route("/{scene}", func(r chi.Router) {
			r.Get("/", h.GetScene)
			r.Delete("/", h.DeleteScene)
			r.Post("/layers", h.AddLayer)
			r.Put("/selection", h.Select)
			r.Get("/controllers", h.ListControllers)
			r.Post("/controllers", h.CreateController)
			r.Post("/bindings", h.ApplyBinding)
			r.Post("/recover", h.Recover)
			r.Post("/cleanup", h.Cleanup)
			r.Post("/undo", h.Undo)
			r.Get("/layers/{layer}/formulas", h.Formulas)
			r.Get("/graph", h.Graph)
		})
	})
	return r
}

// =============================================================================
// Scenes
// =============================================================================

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListScenes lists stored scene names.
// GET /scenes
func (h *Handler) ListScenes(w http.ResponseWriter, r *http.Request) {
	names, err := h.scenes.Store.List(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, http.StatusOK, ListScenesResponse{Scenes: names, Total: len(names)})
}

// CreateScene stores a new empty scene.
// POST /scenes
func (h *Handler) CreateScene(w http.ResponseWriter, r *http.Request) {
	var req CreateSceneRequest
	if !h.decode(w, r, &req) {
		return
	}
	unlock := h.locks.lock(req.Name)
	defer unlock()

	s, err := h.scenes.Create(r.Context(), scene.Config{
		Name:          req.Name,
		Width:         req.Width,
		Height:        req.Height,
		FrameDuration: req.FrameDuration,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.logger.Info("scene created", "scene", s.Name())
	h.writeJSON(w, http.StatusCreated, newSceneResponse(s, time.Time{}))
}

// GetScene returns a scene with its layers, bindings and undo steps.
// GET /scenes/{scene}
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "scene")
	rec, err := h.scenes.Store.Get(r.Context(), name)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	s, err := h.scenes.Load(r.Context(), name)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	resp := newSceneResponse(s, rec.UpdatedAt)
	for _, step := range rec.History {
		resp.UndoSteps = append(resp.UndoSteps, step.Name)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// DeleteScene removes a scene.
// DELETE /scenes/{scene}
func (h *Handler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "scene")
	unlock := h.locks.lock(name)
	defer unlock()

	if err := h.scenes.Store.Delete(r.Context(), name); err != nil {
		h.writeErr(w, err)
		return
	}
	h.logger.Info("scene deleted", "scene", name)
	w.WriteHeader(http.StatusNoContent)
}

// AddLayer appends a layer.
// POST /scenes/{scene}/layers
func (h *Handler) AddLayer(w http.ResponseWriter, r *http.Request) {
	var req AddLayerRequest
	if !h.decode(w, r, &req) {
		return
	}
	var resp LayerResponse
	h.mutate(w, r, "Add layer "+req.Name, func(ctx context.Context, s *scene.Scene) (int, error) {
		l, err := s.AddLayer(scene.LayerSpec{
			Name:     req.Name,
			Kind:     req.Kind,
			ThreeD:   req.ThreeD,
			Position: req.Position,
			Label:    req.Label,
		})
		if err != nil {
			return 0, err
		}
		resp = newLayerResponse(s, l, nil)
		return http.StatusCreated, nil
	}, func() any { return resp })
}

// Select replaces the selection.
// PUT /scenes/{scene}/selection
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	var resp []LayerResponse
	h.mutate(w, r, "", func(ctx context.Context, s *scene.Scene) (int, error) {
		ids := make([]string, 0, len(req.Layers))
		for _, ref := range req.Layers {
			l, err := layerByRef(s, ref)
			if err != nil {
				return 0, err
			}
			ids = append(ids, l.ID)
		}
		if err := s.Select(ids...); err != nil {
			return 0, err
		}
		resp = []LayerResponse{}
		selected := make(map[string]bool)
		for _, l := range s.Selected() {
			selected[l.ID] = true
		}
		for _, l := range s.Selected() {
			resp = append(resp, newLayerResponse(s, l, selected))
		}
		return http.StatusOK, nil
	}, func() any { return resp })
}

// =============================================================================
// Controllers and Bindings
// =============================================================================

// ListControllers lists the scene's controllers with their bound counts.
// GET /scenes/{scene}/controllers
func (h *Handler) ListControllers(w http.ResponseWriter, r *http.Request) {
	s, err := h.scenes.Load(r.Context(), chi.URLParam(r, "scene"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	infos, err := h.runner.ListControllers(r.Context(), s)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if infos == nil {
		infos = []rig.ControllerInfo{}
	}
	h.writeJSON(w, http.StatusOK, ListControllersResponse{Controllers: infos, Total: len(infos)})
}

// CreateController creates or reuses a controller of the requested kind.
// POST /scenes/{scene}/controllers
func (h *Handler) CreateController(w http.ResponseWriter, r *http.Request) {
	var req CreateControllerRequest
	if !h.decode(w, r, &req) {
		return
	}
	var ctrl *rig.Controller
	h.mutate(w, r, fmt.Sprintf("Create %s controller", req.Kind), func(ctx context.Context, s *scene.Scene) (int, error) {
		var err error
		ctrl, err = h.runner.CreateController(ctx, s, req.Kind)
		if err != nil {
			return 0, err
		}
		if ctrl.Created {
			return http.StatusCreated, nil
		}
		return http.StatusOK, nil
	}, func() any { return ctrl })
}

// ApplyBinding binds the selection to a controller.
// POST /scenes/{scene}/bindings
func (h *Handler) ApplyBinding(w http.ResponseWriter, r *http.Request) {
	var req rig.ApplyRequest
	if !h.decode(w, r, &req) {
		return
	}
	var resp ApplyResponse
	h.mutate(w, r, fmt.Sprintf("Apply %s formulas", req.Kind), func(ctx context.Context, s *scene.Scene) (int, error) {
		res, err := h.runner.ApplyBinding(ctx, s, req)
		if err != nil {
			return 0, err
		}
		resp = ApplyResponse{
			Controller: res.Controller,
			Applied:    res.Applied,
			Skipped:    res.Skipped,
			Failures:   res.FailureMessages(),
		}
		return http.StatusOK, nil
	}, func() any { return resp })
}

// Recover rebuilds binding records from formula text.
// POST /scenes/{scene}/recover
func (h *Handler) Recover(w http.ResponseWriter, r *http.Request) {
	var n int
	h.mutate(w, r, "Recover bindings", func(ctx context.Context, s *scene.Scene) (int, error) {
		var err error
		n, err = h.runner.Recover(ctx, s)
		return http.StatusOK, err
	}, func() any { return map[string]int{"recovered": n} })
}

// Cleanup removes every controller and clears every consumer.
// POST /scenes/{scene}/cleanup
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var resp CleanupResponse
	h.mutate(w, r, "Clean up all controllers", func(ctx context.Context, s *scene.Scene) (int, error) {
		rep, err := h.runner.Cleanup(ctx, s)
		if err != nil {
			return 0, err
		}
		resp = CleanupResponse{Cleaned: rep.Cleaned, Deleted: rep.Deleted, Failures: rep.FailureMessages()}
		return http.StatusOK, nil
	}, func() any { return resp })
}

// Undo restores the scene as it was before the most recent request that
// changed it.
// POST /scenes/{scene}/undo
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "scene")
	unlock := h.locks.lock(name)
	defer unlock()

	_, step, err := h.scenes.Undo(r.Context(), name)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.runner.Registry.Bus().Emit(r.Context(), observability.Event{Type: observability.EventUndone, Scene: name})
	h.logger.Info("undone", "scene", name, "step", step)
	h.writeJSON(w, http.StatusOK, UndoResponse{Step: step})
}

// Formulas returns each slot's formula and its value at time t.
// GET /scenes/{scene}/layers/{layer}/formulas
func (h *Handler) Formulas(w http.ResponseWriter, r *http.Request) {
	t := 0.0
	if q := r.URL.Query().Get("t"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			h.writeErr(w, errors.New(errors.ErrCodeInvalidInput, "invalid time %q", q))
			return
		}
		t = v
	}
	s, err := h.scenes.Load(r.Context(), chi.URLParam(r, "scene"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	layer := chi.URLParam(r, "layer")
	slots, err := h.runner.Formulas(r.Context(), s, layer, t)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, FormulasResponse{Layer: layer, Time: t, Slots: slots})
}

// Graph renders the binding graph as DOT, SVG or PNG.
// GET /scenes/{scene}/graph
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	if !render.ValidFormats[format] {
		h.writeErr(w, errors.New(errors.ErrCodeInvalidInput, "unsupported graph format %q", format))
		return
	}
	s, err := h.scenes.Load(r.Context(), chi.URLParam(r, "scene"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	dot := render.ToDOT(s, render.Options{
		Prefix:  h.runner.Registry.Prefix(),
		Unbound: r.URL.Query().Has("unbound"),
		Params:  r.URL.Query().Has("params"),
	})
	out, err := render.Render(r.Context(), dot, format)
	if err != nil {
		h.writeErr(w, errors.Wrap(errors.ErrCodeInternal, err, "render graph"))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
}

// =============================================================================
// Helpers
// =============================================================================

// mutate runs op on the loaded scene under the scene lock and saves the
// result under step. An empty step saves without an undo entry. On success it writes the status op returned and the
// body produced by resp.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, step string, op func(context.Context, *scene.Scene) (int, error), resp func() any) {
	name := chi.URLParam(r, "scene")
	unlock := h.locks.lock(name)
	defer unlock()

	ctx := r.Context()
	s, err := h.scenes.Load(ctx, name)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	status, err := op(ctx, s)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if _, err := h.scenes.Save(ctx, s, step); err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, status, resp())
}

func layerByRef(doc scene.Document, ref string) (*scene.Layer, error) {
	if l, ok := doc.LayerByID(ref); ok {
		return l, nil
	}
	if l, ok := doc.LayerByName(ref); ok {
		return l, nil
	}
	return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %q not found", ref)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON body: " + err.Error(),
			Code:  string(errors.ErrCodeInvalidInput),
		})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "err", err)
	}
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "err", err)
	}
	h.writeJSON(w, status, ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidKind, errors.ErrCodeInvalidName, errors.ErrCodePropertyUnavailable:
		return http.StatusBadRequest
	case errors.ErrCodeNoActiveScene, errors.ErrCodeSceneNotFound, errors.ErrCodeNotFound,
		errors.ErrCodeLayerNotFound, errors.ErrCodeControllerNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNoSelection, errors.ErrCodeNoControllers, errors.ErrCodeDuplicate:
		return http.StatusConflict
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
