package scene

// maxUndoSteps bounds the undo stack.
const maxUndoSteps = 50

// snapshot is a deep copy of the mutable scene state.
type snapshot struct {
	name     string
	layers   []*Layer
	selected map[string]bool
	bindings []Binding
}

type history struct {
	steps    []snapshot
	depth    int
	pending  snapshot
	startRev uint64
}

func (s *Scene) capture(name string) snapshot {
	snap := snapshot{
		name:     name,
		layers:   make([]*Layer, len(s.layers)),
		selected: make(map[string]bool, len(s.selected)),
		bindings: s.Bindings(),
	}
	for i, l := range s.layers {
		snap.layers[i] = l.clone()
	}
	for id, ok := range s.selected {
		snap.selected[id] = ok
	}
	return snap
}

// BeginUndoGroup opens an undo group and returns the function that closes
// it. The end function is safe to call more than once; only the first call
// counts, so callers can defer it and still close early.
func (s *Scene) BeginUndoGroup(name string) (end func()) {
	h := &s.history
	if h.depth == 0 {
		h.pending = s.capture(name)
		h.startRev = s.revision
	}
	h.depth++

	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		h.depth--
		if h.depth > 0 {
			return
		}
		if s.revision != h.startRev {
			h.steps = append(h.steps, h.pending)
			if len(h.steps) > maxUndoSteps {
				h.steps = h.steps[len(h.steps)-maxUndoSteps:]
			}
		}
		h.pending = snapshot{}
	}
}

// Undo restores the state captured by the most recent undo group and
// returns that group's name. It reports false when there is nothing to undo.
func (s *Scene) Undo() (string, bool) {
	h := &s.history
	if len(h.steps) == 0 || h.depth > 0 {
		return "", false
	}
	snap := h.steps[len(h.steps)-1]
	h.steps = h.steps[:len(h.steps)-1]

	s.layers = snap.layers
	s.selected = snap.selected
	s.bindings = snap.bindings
	s.touch()
	return snap.name, true
}

// UndoSteps returns the names of the recorded undo groups, oldest first.
func (s *Scene) UndoSteps() []string {
	names := make([]string, len(s.history.steps))
	for i, step := range s.history.steps {
		names[i] = step.name
	}
	return names
}
