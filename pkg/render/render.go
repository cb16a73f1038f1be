package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/logging"
	"github.com/ritzau/net-topology/pkg/model"
)

// Format is an output format for a rendered topology
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
)

// ErrUnknownFormat is returned for output formats outside the supported set
var ErrUnknownFormat = errors.New("unknown output format")

var log = logging.New("render")

// ParseFormat validates a format name (case-insensitive)
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatHTML, FormatJSON, FormatDOT, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format matching the file extension, or fallback
func FormatFromPath(path string, fallback Format) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return fallback
}

// Write renders g to w in the given format
func Write(w io.Writer, g *graph.Graph, format Format, opts HTMLOptions) error {
	switch format {
	case FormatHTML:
		return WriteHTML(w, g.Snapshot(), opts)
	case FormatJSON:
		return WriteJSON(w, g.Snapshot())
	case FormatDOT:
		_, err := io.WriteString(w, ToDOT(g.Snapshot()))
		return err
	case FormatSVG:
		svg, err := RenderSVG(ToDOT(g.Snapshot()))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFile renders g to the file at path, replacing it
func WriteFile(g *graph.Graph, path string, format Format, opts HTMLOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Write(f, g, format, opts); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	log.Info("wrote topology", "path", path, "format", format, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return nil
}

// WriteJSON writes the graph in its JSON form
func WriteJSON(w io.Writer, g *model.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}
