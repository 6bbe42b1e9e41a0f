package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// Format constants for rendered output.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// Render lays out a DOT graph in the given format. FormatDOT returns the
// input unchanged.
func Render(ctx context.Context, dot string, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := layout(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return layout(ctx, dot, graphviz.PNG)
}

func layout(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// viewBox-sized one so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
