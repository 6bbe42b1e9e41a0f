package binding

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/riglink/pkg/formula"
	"github.com/matzehuels/riglink/pkg/scene"
)

var (
	refPattern    = regexp.MustCompile(`thisComp\.layer\("((?:[^"\\]|\\.)*)"\)`)
	offsetPattern = regexp.MustCompile(`var t = time - (-?[0-9.]+);`)
)

// Recover rebuilds binding records from formula text for slots that have
// none, such as scenes imported from a host that only stores text. A slot
// is recovered when its text references a controller whose name starts
// with the registry prefix. It returns the number of records created.
func (r *Resolver) Recover(doc scene.Document) int {
	have := make(map[string]bool)
	for _, b := range doc.Bindings() {
		have[b.ConsumerID+"/"+string(b.Slot)] = true
	}

	n := 0
	for _, l := range doc.Layers() {
		if r.Registry.IsController(l) {
			continue
		}
		for _, slot := range scene.Slots {
			text := l.Expression(slot)
			if text == "" || have[l.ID+"/"+string(slot)] {
				continue
			}
			b, ok := r.parse(doc, l, slot, text)
			if !ok {
				continue
			}
			doc.PutBinding(b)
			n++
		}
	}
	return n
}

func (r *Resolver) parse(doc scene.Document, l *scene.Layer, slot scene.Slot, text string) (scene.Binding, bool) {
	m := refPattern.FindStringSubmatch(text)
	if m == nil {
		return scene.Binding{}, false
	}
	name := strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(m[1])
	if !strings.HasPrefix(name, r.Registry.Prefix()) {
		return scene.Binding{}, false
	}

	opts := formula.Options{Guard: strings.Contains(text, "if (!")}
	if om := offsetPattern.FindStringSubmatch(text); om != nil {
		opts.OffsetSeconds, _ = strconv.ParseFloat(om[1], 64)
	}

	kind, ok := classify(slot, name, text, opts)
	if !ok {
		return scene.Binding{}, false
	}
	b := scene.Binding{
		ConsumerID:     l.ID,
		ControllerName: name,
		Slot:           slot,
		Formula:        string(kind),
		OffsetSeconds:  opts.OffsetSeconds,
		Guard:          opts.Guard,
	}
	if ctrl, ok := doc.LayerByName(name); ok {
		b.ControllerID = ctrl.ID
	}
	return b, true
}

// markers identify a formula kind in text that does not match a rendering
// byte for byte.
var markers = []struct {
	kind   formula.Kind
	marker string
}{
	{formula.KindCircularPosition, "revolutionsPerSecond"},
	{formula.KindCircularScale, "scaleFactor * 100"},
	{formula.KindGridScale, "ease(dist"},
	{formula.KindGridZOffset, "zDelta"},
	{formula.KindYDrivenScale, "valueAtTime"},
}

func classify(slot scene.Slot, name, text string, opts formula.Options) (formula.Kind, bool) {
	for _, k := range formula.Kinds() {
		info, _ := formula.Lookup(k)
		if info.Slot != slot {
			continue
		}
		if rendered, err := formula.Render(k, name, opts); err == nil && rendered == text {
			return k, true
		}
	}
	for _, m := range markers {
		info, _ := formula.Lookup(m.kind)
		if info.Slot == slot && strings.Contains(text, m.marker) {
			return m.kind, true
		}
	}
	return "", false
}
