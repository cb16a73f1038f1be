package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/ritzau/net-topology/pkg/model"
)

// shapes per resource type; unlisted types are drawn as ellipses
var shapes = map[model.ResourceType]string{
	model.ResourceTGW:                     "hexagon",
	model.ResourceVPC:                     "box",
	model.ResourceVPNGateway:              "diamond",
	model.ResourceVPNConnection:           "diamond",
	model.ResourceDirectConnectGateway:    "doubleoctagon",
	model.ResourceDirectConnectConnection: "octagon",
}

// ToDOT converts a topology to an undirected Graphviz graph.
// Nodes are ranked by their level so the layout follows the
// DCG, TGW, VPC, gateway tiers. The result can be rendered with RenderSVG.
func ToDOT(g *model.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("graph topology {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("\n")

	levels := make(map[int][]string)
	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(nodeAttrs(n), ", "))
		levels[n.Level] = append(levels[n.Level], n.Key)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	if len(levels) > 1 {
		buf.WriteString("\n")
		for level := 0; level <= model.Template(model.ResourceUnknown).Level; level++ {
			keys := levels[level]
			if len(keys) == 0 {
				continue
			}
			quoted := make([]string, len(keys))
			for i, k := range keys {
				quoted[i] = strconv.Quote(k)
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n model.Node) []string {
	label := n.Label
	switch {
	case len(n.Members) > 0:
		label = fmt.Sprintf("%s\n%s (%d)", n.Label, n.Key, len(n.Members))
	case n.Name != "":
		label = n.Label + "\n" + n.Name
	}

	shape, ok := shapes[n.ResourceType]
	if !ok {
		shape = "ellipse"
	}

	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("tooltip=%q", n.Title),
		"shape=" + shape,
		fmt.Sprintf("width=%.2f", float64(n.Size)/40),
	}
}

func edgeAttrs(e model.Edge) []string {
	attrs := []string{
		fmt.Sprintf("color=%q", e.Color),
		fmt.Sprintf("penwidth=%s", strconv.FormatFloat(e.Weight, 'f', -1, 64)),
		fmt.Sprintf("tooltip=%q", string(e.Kind)),
	}
	if e.Multiplicity > 1 {
		attrs = append(attrs, fmt.Sprintf("label=\"x%d\"", e.Multiplicity))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the fixed point size Graphviz emits with a
// viewBox-only root element so the SVG scales with its container
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="100%%">`, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
