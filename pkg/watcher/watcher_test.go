package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDebouncerQuietPeriod(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeSnapshot, Paths: []string{"a.json"}}
	input <- ChangeEvent{Type: ChangeTypeSnapshot, Paths: []string{"a.json", "b.json"}}
	input <- ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"c.json"}}

	select {
	case event := <-d.Output():
		if event.Type != ChangeTypeSnapshot || len(event.Paths) != 2 {
			t.Errorf("Expected deduplicated snapshot batch, got %v %v", event.Type, event.Paths)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for debounced event")
	}

	select {
	case event := <-d.Output():
		if event.Type != ChangeTypeRemoved || len(event.Paths) != 1 {
			t.Errorf("Expected removal batch, got %v %v", event.Type, event.Paths)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for removal event")
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 200*time.Millisecond, 300*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Keep the quiet period from expiring; max wait must still flush
	stop := time.After(time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ticker.C:
			input <- ChangeEvent{Type: ChangeTypeSnapshot, Paths: []string{"a.json"}}
		case event := <-d.Output():
			if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
				t.Errorf("Flush took %v, expected max wait to cap it", elapsed)
			}
			if len(event.Paths) != 1 {
				t.Errorf("Expected deduplicated path, got %v", event.Paths)
			}
			return
		case <-stop:
			t.Fatal("Max wait did not flush")
		}
	}
}

func TestDebouncerClosesOutput(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeSnapshot, Paths: []string{"a.json"}}
	close(input)

	if event, ok := <-d.Output(); !ok || event.Paths[0] != "a.json" {
		t.Errorf("Expected pending event flushed on close, got %v (ok=%v)", event, ok)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to be closed")
	}
}

func TestChangeAnalysis(t *testing.T) {
	var a ChangeAnalysis
	if a.NeedRerun || a.Reason() != "no changes" {
		t.Errorf("Empty analysis should not need a rerun: %+v", a)
	}

	a.AnalyzeChanges(ChangeEvent{Type: ChangeTypeSnapshot, Paths: []string{"a.json", "b.json"}})
	a.AnalyzeChanges(ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"c.json"}})

	if !a.NeedRerun {
		t.Error("Expected rerun after snapshot changes")
	}
	if got := a.Reason(); got != "2 snapshot file(s) changed, 1 removed" {
		t.Errorf("Reason() = %q", got)
	}
}

func TestFileWatcherReportsSnapshots(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher(dir, ".json")
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "inventory.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-fw.Events():
		if event.Type != ChangeTypeSnapshot {
			t.Errorf("Expected snapshot change, got %v", event.Type)
		}
		for _, p := range event.Paths {
			if p != path {
				t.Errorf("Unexpected path in event: %s", p)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for change event")
	}
}
