package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Options configures DOT output.
type Options struct {
	// Prefix marks controller layers. Defaults to controller.DefaultPrefix.
	Prefix string

	// Unbound includes layers that have no binding.
	Unbound bool

	// Params adds controller parameter values to controller labels.
	Params bool
}

// labelColors maps host colour labels to fill colours.
var labelColors = map[int]string{
	1:  "#b53838",
	9:  "#8e2c9a",
	10: "#e8920d",
}

// ToDOT converts a scene's binding graph to Graphviz DOT. Output is
// deterministic: nodes follow scene order and edges follow binding order.
func ToDOT(doc scene.Document, opts Options) string {
	if opts.Prefix == "" {
		opts.Prefix = controller.DefaultPrefix
	}
	reg := controller.NewRegistry(controller.WithPrefix(opts.Prefix))
	bindings := doc.Bindings()

	bound := make(map[string]bool)
	for _, b := range bindings {
		bound[b.ConsumerID] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph rig {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for _, l := range doc.Layers() {
		if reg.IsController(l) {
			fill := labelColors[l.Label]
			if fill == "" {
				fill = "#888888"
			}
			fmt.Fprintf(&buf, "  %q [label=%q, shape=box, style=\"rounded,filled\", fillcolor=%q, fontcolor=white];\n",
				l.ID, controllerLabel(l, opts.Params), fill)
			continue
		}
		if !bound[l.ID] && !opts.Unbound {
			continue
		}
		shape := "ellipse"
		if l.ThreeD {
			shape = "box3d"
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=%s];\n", l.ID, l.Name, shape)
	}

	missing := make(map[string]bool)
	for _, b := range bindings {
		if _, ok := doc.LayerByName(b.ControllerName); ok || missing[b.ControllerName] {
			continue
		}
		missing[b.ControllerName] = true
		fmt.Fprintf(&buf, "  %q [label=%q, shape=box, style=\"rounded,dashed\", color=red, fontcolor=red];\n",
			missingID(b.ControllerName), b.ControllerName+"\n(missing)")
	}

	buf.WriteString("\n")
	for _, b := range bindings {
		label := string(b.Slot) + ": " + b.Formula
		if b.OffsetSeconds != 0 {
			label += fmt.Sprintf(" (-%gs)", b.OffsetSeconds)
		}
		if ctrl, ok := doc.LayerByName(b.ControllerName); ok {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", ctrl.ID, b.ConsumerID, label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, color=red];\n", missingID(b.ControllerName), b.ConsumerID, label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func missingID(name string) string {
	return "missing:" + name
}

func controllerLabel(l *scene.Layer, withParams bool) string {
	if !withParams || len(l.Effects) == 0 {
		return l.Name
	}
	parts := []string{l.Name}
	for _, e := range l.Effects {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Name, formatVec(e.Value)))
	}
	return strings.Join(parts, "\n")
}

func formatVec(v scene.Vec) string {
	if len(v) == 1 {
		return fmt.Sprintf("%g", v[0])
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
