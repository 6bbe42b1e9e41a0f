package api

import (
	"time"

	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/scene"
)

// =============================================================================
// Requests
// =============================================================================

// CreateSceneRequest is the body of POST /scenes.
type CreateSceneRequest struct {
	Name          string  `json:"name"`
	Width         int     `json:"width,omitempty"`
	Height        int     `json:"height,omitempty"`
	FrameDuration float64 `json:"frame_duration,omitempty"`
}

// AddLayerRequest is the body of POST /scenes/{scene}/layers.
type AddLayerRequest struct {
	Name     string          `json:"name"`
	Kind     scene.LayerKind `json:"kind,omitempty"`
	ThreeD   bool            `json:"three_d,omitempty"`
	Position scene.Vec       `json:"position,omitempty"`
	Label    int             `json:"label,omitempty"`
}

// SelectionRequest is the body of PUT /scenes/{scene}/selection. Entries
// are layer IDs or names.
type SelectionRequest struct {
	Layers []string `json:"layers"`
}

// CreateControllerRequest is the body of POST /scenes/{scene}/controllers.
type CreateControllerRequest struct {
	Kind string `json:"kind"`
}

// =============================================================================
// Responses
// =============================================================================

// SceneResponse summarizes a scene.
type SceneResponse struct {
	Name          string          `json:"name"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	FrameDuration float64         `json:"frame_duration"`
	Layers        []LayerResponse `json:"layers"`
	Bindings      []scene.Binding `json:"bindings"`
	UndoSteps     []string        `json:"undo_steps"`
	UpdatedAt     time.Time       `json:"updated_at,omitzero"`
}

// LayerResponse describes one layer.
type LayerResponse struct {
	ID          string                `json:"id"`
	Index       int                   `json:"index"`
	Name        string                `json:"name"`
	Kind        scene.LayerKind       `json:"kind"`
	ThreeD      bool                  `json:"three_d"`
	Label       int                   `json:"label"`
	Selected    bool                  `json:"selected"`
	Position    scene.Vec             `json:"position"`
	Scale       scene.Vec             `json:"scale,omitempty"`
	Expressions map[scene.Slot]string `json:"expressions,omitempty"`
}

// ListScenesResponse is the body of GET /scenes.
type ListScenesResponse struct {
	Scenes []string `json:"scenes"`
	Total  int      `json:"total"`
}

// ListControllersResponse is the body of GET /scenes/{scene}/controllers.
type ListControllersResponse struct {
	Controllers []rig.ControllerInfo `json:"controllers"`
	Total       int                  `json:"total"`
}

// ApplyResponse is the body of POST /scenes/{scene}/bindings.
type ApplyResponse struct {
	Controller string   `json:"controller"`
	Applied    int      `json:"applied"`
	Skipped    int      `json:"skipped"`
	Failures   []string `json:"failures"`
}

// CleanupResponse is the body of POST /scenes/{scene}/cleanup.
type CleanupResponse struct {
	Cleaned  int      `json:"cleaned"`
	Deleted  int      `json:"deleted"`
	Failures []string `json:"failures"`
}

// UndoResponse is the body of POST /scenes/{scene}/undo.
type UndoResponse struct {
	Step string `json:"step"`
}

// FormulasResponse is the body of GET /scenes/{scene}/layers/{layer}/formulas.
type FormulasResponse struct {
	Layer string            `json:"layer"`
	Time  float64           `json:"time"`
	Slots []rig.SlotFormula `json:"slots"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func newLayerResponse(doc scene.Document, l *scene.Layer, selected map[string]bool) LayerResponse {
	return LayerResponse{
		ID:          l.ID,
		Index:       doc.Index(l.ID),
		Name:        l.Name,
		Kind:        l.Kind,
		ThreeD:      l.ThreeD,
		Label:       l.Label,
		Selected:    selected[l.ID],
		Position:    l.Position,
		Scale:       l.Scale,
		Expressions: l.Expressions,
	}
}

func newSceneResponse(s *scene.Scene, updated time.Time) SceneResponse {
	selected := make(map[string]bool)
	for _, l := range s.Selected() {
		selected[l.ID] = true
	}
	resp := SceneResponse{
		Name:          s.Name(),
		Width:         s.Width(),
		Height:        s.Height(),
		FrameDuration: s.FrameDuration(),
		Layers:        []LayerResponse{},
		Bindings:      s.Bindings(),
		UndoSteps:     []string{},
		UpdatedAt:     updated,
	}
	for _, l := range s.Layers() {
		resp.Layers = append(resp.Layers, newLayerResponse(s, l, selected))
	}
	if resp.Bindings == nil {
		resp.Bindings = []scene.Binding{}
	}
	return resp
}
