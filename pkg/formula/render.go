package formula

import (
	"strconv"
	"strings"

	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Render returns the host expression text for kind bound to the named
// controller. The output is deterministic for a given input.
func Render(kind Kind, controller string, opts Options) (string, error) {
	if _, err := Lookup(kind); err != nil {
		return "", err
	}

	v := "ctrl"
	if kind == KindCircularPosition || kind == KindCircularScale {
		v = "controller"
	}

	var body []string
	switch kind {
	case KindCircularPosition:
		body = circularPositionBody(v)
	case KindCircularScale:
		body = circularScaleBody(v)
	case KindGridScale:
		body = gridScaleBody(v)
	case KindGridZOffset:
		body = gridZOffsetBody(v)
	case KindYDrivenScale:
		body = yDrivenBody(v, opts.OffsetSeconds)
	}

	lines := []string{"var " + v + " = thisComp.layer(" + quote(controller) + ");"}
	if opts.Guard {
		lines = append(lines, "if (!"+v+") { value; } else {")
		for _, l := range body {
			lines = append(lines, "  "+l)
		}
		lines = append(lines, "}")
	} else {
		lines = append(lines, body...)
	}
	return strings.Join(lines, "\n"), nil
}

// ControllerRef returns the text a formula uses to reference a controller.
// Any formula bound to name contains it.
func ControllerRef(name string) string {
	return "thisComp.layer(" + quote(name) + ")"
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func effect(v, name string, t scene.ParamType) string {
	return v + ".effect(" + quote(name) + ")(" + quote(t.ControlName()) + ")"
}

func slider(v, name string) string { return effect(v, name, scene.ParamSlider) }

func circularPositionBody(v string) []string {
	return []string{
		"var growDuration = " + slider(v, params.GrowDuration) + ";",
		"var maxRadius = " + slider(v, params.MaxRadius) + ";",
		"var revolutionsPerSecond = " + slider(v, params.RevolutionsPerSecond) + ";",
		"var layerDelay = " + slider(v, params.LayerDelay) + ";",
		"var indexOffset = (index - 1) * layerDelay;",
		"var t = time - indexOffset;",
		"var compCenter = [thisComp.width / 2, thisComp.height / 2];",
		"var growthFactor = clamp(t / growDuration, 0, 1);",
		"growthFactor = easeOut(growthFactor, 0, 1);",
		"var radius = maxRadius * growthFactor;",
		"var angle = t * revolutionsPerSecond * 2 * Math.PI;",
		"var x = Math.cos(angle) * radius;",
		"var y = Math.sin(angle) * radius;",
		"compCenter + [x, y];",
	}
}

func circularScaleBody(v string) []string {
	return []string{
		"var growDuration = " + slider(v, params.GrowDuration) + ";",
		"var layerDelay = " + slider(v, params.LayerDelay) + ";",
		"var indexOffset = (index - 1) * layerDelay;",
		"var t = time - indexOffset;",
		"var scaleFactor = clamp(t / growDuration, 0, 1);",
		"scaleFactor = easeOut(scaleFactor, 0, 1);",
		"var scale = scaleFactor * 100;",
		"[scale, scale];",
	}
}

func gridScaleBody(v string) []string {
	return []string{
		"var pos = thisLayer.toWorld([0,0]);",
		"var ctrlPos = " + v + ".toWorld(" + v + ".anchorPoint);",
		"var maxDist = " + slider(v, params.MaxDistance) + ";",
		"var minScale = " + slider(v, params.MinScale) + ";",
		"var maxScale = " + slider(v, params.MaxScale) + ";",
		"var dist = length(pos, ctrlPos);",
		"var scaleFactor = ease(dist, 0, maxDist, maxScale, minScale);",
		"[scaleFactor, scaleFactor];",
	}
}

func gridZOffsetBody(v string) []string {
	return []string{
		"var pos = thisLayer.toWorld([0,0]);",
		"var ctrlPos = " + v + ".toWorld(" + v + ".anchorPoint);",
		"var zOffset = " + slider(v, params.ZOffset) + ";",
		"var dist = length(pos, ctrlPos);",
		"var zDelta = zOffset != 0 ? dist / zOffset * 100 : 0;",
		"value + [0, 0, zDelta];",
	}
}

func yDrivenBody(v string, offset float64) []string {
	return []string{
		"var minVal = " + slider(v, params.MinValue) + ";",
		"var maxVal = " + slider(v, params.MaxValue) + ";",
		"var t = time - " + strconv.FormatFloat(offset, 'f', -1, 64) + ";",
		"var ctrlPos = " + v + ".position.valueAtTime(t);",
		"var layerPos = thisLayer.position.valueAtTime(t);",
		"var dims = layerPos.length > 2 ? 3 : 2;",
		"if (ctrlPos[0] >= layerPos[0]) {",
		"  [maxVal, maxVal];",
		"} else {",
		"  var startX = " + effect(v, params.StartPos, scene.ParamPoint) + "[0];",
		"  var dist = length(ctrlPos - layerPos);",
		"  var maxDist = length([startX, layerPos[1], dims > 2 ? layerPos[2] : 0] - layerPos);",
		"  var norm = maxDist !== 0 ? clamp(dist / maxDist, 0, 1) : 0;",
		"  var remapped = linear(norm, 0, 1, maxVal, minVal);",
		"  dims > 2 ? [remapped, remapped, remapped] : [remapped, remapped];",
		"}",
	}
}
