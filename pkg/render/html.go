package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/ritzau/net-topology/pkg/model"
)

// HTMLOptions controls the interactive page
type HTMLOptions struct {
	Title string
	// SubscribeURL, when set, makes the page reload whenever the server
	// publishes a topology update on this Server-Sent Events endpoint
	SubscribeURL string
	// StatusURL, when set, streams ingestion progress into the page header
	StatusURL string
	// RunID identifies the run the page shows. Empty means no run has
	// finished yet and the page is a placeholder.
	RunID string
}

type pageData struct {
	Title        string
	Graph        template.JS
	Types        []model.ResourceType
	SubscribeURL string
	StatusURL    string
	RunID        string
	Nodes        int
	Edges        int
}

var page = template.Must(template.New("topology").Parse(pageTemplate))

// WriteHTML writes a self-contained vis-network page for the graph.
// The page has physics enabled with the forceAtlas2Based solver, a node
// selector that focuses a resource and a resource type filter.
func WriteHTML(w io.Writer, g *model.Graph, opts HTMLOptions) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "Network topology"
	}

	types := make([]model.ResourceType, 0)
	seen := make(map[model.ResourceType]bool)
	for _, n := range g.Nodes {
		if !seen[n.ResourceType] {
			seen[n.ResourceType] = true
			types = append(types, n.ResourceType)
		}
	}

	return page.Execute(w, pageData{
		Title:        title,
		Graph:        template.JS(data),
		Types:        types,
		SubscribeURL: opts.SubscribeURL,
		StatusURL:    opts.StatusURL,
		RunID:        opts.RunID,
		Nodes:        len(g.Nodes),
		Edges:        len(g.Edges),
	})
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"></script>
<style>
  body { margin: 0; font-family: sans-serif; }
  #menu { padding: 8px; background: #f4f4f4; border-bottom: 1px solid #ddd; display: flex; gap: 12px; align-items: center; }
  #network { width: 100%; height: calc(100vh - 50px); }
  #stats { margin-left: auto; color: #666; }
  #status { color: #a60; }
</style>
</head>
<body data-subscribe="{{.SubscribeURL}}" data-status="{{.StatusURL}}" data-run="{{.RunID}}">
<div id="menu">
  <label>Select a node
    <select id="select-node"><option value="">(all)</option></select>
  </label>
  <label>Resource type
    <select id="filter-type">
      <option value="">(all)</option>
      {{range .Types}}<option value="{{.}}">{{.}}</option>
      {{end}}
    </select>
  </label>
  <span id="status">{{if and .SubscribeURL (not .RunID)}}Waiting for the first ingestion run...{{end}}</span>
  <span id="stats">{{.Nodes}} nodes, {{.Edges}} edges</span>
</div>
<div id="network"></div>
<script>
  const data = {{.Graph}};
  const nodes = new vis.DataSet((data.nodes || []).map(n => ({
    id: n.id, label: n.label, title: n.title, level: n.level, size: n.size,
    group: n.resource_type, resourceType: n.resource_type
  })));
  const edges = new vis.DataSet((data.edges || []).map((e, i) => ({
    id: i, from: e.from, to: e.to, color: e.color, title: e.title || e.kind,
    width: e.weight, value: e.weight
  })));

  const network = new vis.Network(document.getElementById("network"), { nodes, edges }, {
    physics: { enabled: true, solver: "forceAtlas2Based" },
    interaction: { hover: true }
  });

  const select = document.getElementById("select-node");
  nodes.get({ order: "id" }).forEach(n => {
    const opt = document.createElement("option");
    opt.value = n.id;
    opt.textContent = n.title;
    select.appendChild(opt);
  });
  select.addEventListener("change", () => {
    if (!select.value) { network.unselectAll(); network.fit(); return; }
    network.selectNodes([select.value]);
    network.focus(select.value, { scale: 1.2, animation: true });
  });

  document.getElementById("filter-type").addEventListener("change", ev => {
    const want = ev.target.value;
    nodes.update(nodes.get().map(n => ({ id: n.id, hidden: want !== "" && n.resourceType !== want })));
  });
{{if .SubscribeURL}}
  const loadedRun = document.body.dataset.run;
  const source = new EventSource(document.body.dataset.subscribe);
  source.onmessage = ev => {
    const event = JSON.parse(ev.data);
    if (event.topic !== "topology" || !event.data) { return; }
    // The latest update is replayed on connect; only a different run reloads
    if (event.data.run_id !== loadedRun) { window.location.reload(); }
  };
{{end}}{{if .StatusURL}}
  const status = document.getElementById("status");
  const progress = new EventSource(document.body.dataset.status);
  progress.onmessage = ev => {
    const event = JSON.parse(ev.data);
    if (event.topic !== "ingest_status" || !event.data) { return; }
    const s = event.data;
    if (s.state === "ready" && s.run_id === document.body.dataset.run) { status.textContent = ""; return; }
    let text = s.message || s.state;
    if (s.total > 0) { text += " (" + s.step + "/" + s.total + ")"; }
    status.textContent = text;
  };
{{end}}
</script>
</body>
</html>
`
