package watcher

import (
	"context"
	"time"
)

// Debouncer batches rapid file system events to avoid re-ingesting on every write.
// A batch is emitted once no event arrived for the quiet period, or at the
// latest maxWait after the first event of the batch.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	stopTimer(quiet)
	deadline := time.NewTimer(d.maxWait)
	stopTimer(deadline)

	accumulated := make(map[ChangeType][]string)
	eventCount := 0

	flush := func() {
		stopTimer(quiet)
		stopTimer(deadline)
		if eventCount == 0 {
			return
		}
		log.Debug("flushing accumulated events", "count", eventCount)

		// Removals last so a file that was rewritten and then deleted ends up deleted
		for _, t := range []ChangeType{ChangeTypeSnapshot, ChangeTypeRemoved} {
			if paths := accumulated[t]; len(paths) > 0 {
				select {
				case d.output <- ChangeEvent{Type: t, Paths: dedupe(paths), Timestamp: time.Now()}:
				case <-ctx.Done():
				}
			}
		}
		accumulated = make(map[ChangeType][]string)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			accumulated[event.Type] = append(accumulated[event.Type], event.Paths...)
			if eventCount == 0 {
				deadline.Reset(d.maxWait)
			}
			eventCount++

			stopTimer(quiet)
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events; it is closed when the debouncer stops
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
