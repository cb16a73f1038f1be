package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/net-topology/pkg/finder"
	"github.com/ritzau/net-topology/pkg/logging"
)

// batchWindow groups the burst of events a single file write produces
const batchWindow = 100 * time.Millisecond

var log = logging.New("watcher")

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeSnapshot ChangeType = iota // Snapshot file created or written
	ChangeTypeRemoved                    // Snapshot file removed or renamed away
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeSnapshot:
		return "snapshot"
	case ChangeTypeRemoved:
		return "removed"
	}
	return "unknown"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a snapshot directory tree, or a single snapshot file, for changes
type FileWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	ext     string
	single  string // Set when root is a file; only that path is reported
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the snapshot input at root.
// In directory mode only files ending in ext are reported.
func NewFileWatcher(root, ext string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		root:    root,
		ext:     ext,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start registers the watches and processes events until ctx is cancelled
func (fw *FileWatcher) Start(ctx context.Context) error {
	info, err := os.Stat(fw.root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", fw.root, err)
	}

	if info.IsDir() {
		if err := fw.watchTree(fw.root); err != nil {
			return err
		}
	} else {
		// Editors replace files on save, so watch the directory and filter
		fw.single = filepath.Clean(fw.root)
		if err := fw.watcher.Add(filepath.Dir(fw.root)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(fw.root), err)
		}
	}

	log.Info("started watching snapshots", "path", fw.root)
	go fw.processEvents(ctx)
	return nil
}

// watchTree adds a watch for dir and every non-hidden directory below it
func (fw *FileWatcher) watchTree(dir string) error {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	log.Debug("monitoring directories", "root", dir, "count", count)
	return nil
}

// relevant reports whether a path names a snapshot this watcher reports on
func (fw *FileWatcher) relevant(path string) bool {
	if fw.single != "" {
		return filepath.Clean(path) == fw.single
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return finder.MatchesExt(path, fw.ext)
}

// processEvents batches file system events by change type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeSnapshot, ChangeTypeRemoved} {
			if paths := pending[t]; len(paths) > 0 {
				select {
				case fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}:
				case <-ctx.Done():
				}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	defer func() {
		fw.watcher.Close()
		close(fw.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories inside the tree need their own watch
			if event.Has(fsnotify.Create) && fw.single == "" {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.watchTree(event.Name); err != nil {
						log.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if !fw.relevant(event.Name) {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				pending[ChangeTypeRemoved] = append(pending[ChangeTypeRemoved], event.Name)
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				pending[ChangeTypeSnapshot] = append(pending[ChangeTypeSnapshot], event.Name)
			default:
				continue
			}
			log.Trace("file event", "op", event.Op.String(), "path", event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events; it is closed when the watcher stops
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
