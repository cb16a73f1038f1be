package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ritzau/net-topology/pkg/analysis/api"
	"github.com/ritzau/net-topology/pkg/finder"
	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/ingest"
	"github.com/ritzau/net-topology/pkg/lens"
	"github.com/ritzau/net-topology/pkg/logging"
)

// Run states reported to the observer
const (
	StateDiscovering = "discovering"
	StateIngesting   = "ingesting"
	StateReady       = "ready"
	StateError       = "error"
)

// Observer receives progress from a run. The web server implements it.
type Observer interface {
	RunStatus(ctx context.Context, state, message string, step, total int)
	RunComplete(ctx context.Context, result *Result)
}

// Result is the outcome of one ingestion run.
// The graph is not modified after the run returns.
type Result struct {
	RunID    string
	Graph    *graph.Graph
	Report   ingest.Report
	Files    int
	Duration time.Duration
}

// View returns the graph as seen through the lens; the result graph is a copy
func (r *Result) View(cfg lens.LensConfig) *graph.Graph {
	return lens.Render(r.Graph, cfg)
}

// Runner orchestrates discovery, decoding and ingestion
type Runner struct {
	input    string
	ext      string
	observer Observer
	logger   *logging.Logger
	mu       sync.Mutex // Prevent concurrent runs
}

// NewRunner creates a runner for the snapshot file or directory at input.
// Directories are searched for files ending in ext.
func NewRunner(input, ext string) *Runner {
	return &Runner{
		input:  input,
		ext:    ext,
		logger: logging.New("analysis"),
	}
}

// SetObserver registers the observer notified about run progress
func (r *Runner) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Run discovers the snapshot files and ingests them into a fresh graph
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx = logging.WithRunID(ctx, uuid.NewString())
	r.status(ctx, StateDiscovering, "Discovering snapshot files...", 0, 0)

	files, err := finder.FindSnapshotFiles(r.input, r.ext)
	if err != nil {
		r.status(ctx, StateError, fmt.Sprintf("Discovery failed: %v", err), 0, 0)
		return nil, fmt.Errorf("discover snapshots: %w", err)
	}
	r.logger.InfoContext(ctx, "found snapshot files", "input", r.input, "count", len(files))

	return r.run(ctx, api.FileSources(files))
}

// RunSources ingests the given sources into a fresh graph
func (r *Runner) RunSources(ctx context.Context, sources []api.Source) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if logging.GetRunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, uuid.NewString())
	}
	return r.run(ctx, sources)
}

func (r *Runner) run(ctx context.Context, sources []api.Source) (*Result, error) {
	start := time.Now()
	in := ingest.New(graph.New())
	total := len(sources)

	for i, src := range sources {
		// Cancellation is honored between files; a batch is never half applied
		if err := ctx.Err(); err != nil {
			r.status(ctx, StateError, "Run cancelled", i, total)
			return nil, err
		}

		r.status(ctx, StateIngesting, "Ingesting "+src.Name(), i+1, total)
		batches, err := src.Load(ctx)
		if err != nil {
			r.status(ctx, StateError, fmt.Sprintf("Failed to read %s: %v", src.Name(), err), i+1, total)
			return nil, fmt.Errorf("load %s: %w", src.Name(), err)
		}

		for _, b := range batches {
			in.Apply(b)
		}
		r.logger.Debug("source ingested", "source", src.Name(), "batches", len(batches))
	}

	result := &Result{
		RunID:    logging.GetRunID(ctx),
		Graph:    in.Graph(),
		Report:   in.Report(),
		Files:    total,
		Duration: time.Since(start),
	}

	r.logger.InfoContext(ctx, "ingestion complete",
		"files", total,
		"nodes", result.Graph.NodeCount(),
		"edges", result.Graph.EdgeCount(),
		"warnings", len(result.Report.Warnings),
		"durationMs", result.Duration.Milliseconds(),
	)

	r.status(ctx, StateReady, "Topology ready", total, total)
	if r.observer != nil {
		r.observer.RunComplete(ctx, result)
	}
	return result, nil
}

func (r *Runner) status(ctx context.Context, state, message string, step, total int) {
	if r.observer != nil {
		r.observer.RunStatus(ctx, state, message, step, total)
	}
}
