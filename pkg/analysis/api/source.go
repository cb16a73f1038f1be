package api

import (
	"context"
	"path/filepath"

	"github.com/ritzau/net-topology/pkg/snapshot"
)

// Source represents one origin of inventory batches.
// Implementations encapsulate reading and decoding; the runner ingests
// what they return, in order.
type Source interface {
	// Name identifies the source in logs and status events
	Name() string

	// Load returns the asset batches of the source.
	// It should respect the context for cancellation.
	Load(ctx context.Context) ([]*snapshot.Assets, error)
}

// FileSource reads a snapshot file from disk
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return filepath.Base(s.Path)
}

func (s FileSource) Load(ctx context.Context) ([]*snapshot.Assets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := snapshot.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return f.Batches(), nil
}

// MemorySource serves batches that are already decoded
type MemorySource struct {
	Label   string
	Batches []*snapshot.Assets
}

func (s MemorySource) Name() string {
	return s.Label
}

func (s MemorySource) Load(ctx context.Context) ([]*snapshot.Assets, error) {
	return s.Batches, ctx.Err()
}

// FileSources wraps each path in a FileSource
func FileSources(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, FileSource{Path: p})
	}
	return sources
}
