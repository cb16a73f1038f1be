package watcher

import "fmt"

// ChangeAnalysis describes what changed and whether the topology must be rebuilt
type ChangeAnalysis struct {
	NeedRerun bool
	Changed   []string
	Removed   []string
}

// AnalyzeChanges folds a debounced event into the analysis.
// Any snapshot change requires a full rerun: records from one file can
// name resources that other files describe, so there is no partial update.
func (a *ChangeAnalysis) AnalyzeChanges(event ChangeEvent) {
	switch event.Type {
	case ChangeTypeSnapshot:
		a.Changed = append(a.Changed, event.Paths...)
	case ChangeTypeRemoved:
		a.Removed = append(a.Removed, event.Paths...)
	}
	a.NeedRerun = len(a.Changed) > 0 || len(a.Removed) > 0
}

// Reason describes the change for logs and status messages
func (a *ChangeAnalysis) Reason() string {
	switch {
	case len(a.Changed) > 0 && len(a.Removed) > 0:
		return fmt.Sprintf("%d snapshot file(s) changed, %d removed", len(a.Changed), len(a.Removed))
	case len(a.Removed) > 0:
		return fmt.Sprintf("%d snapshot file(s) removed", len(a.Removed))
	case len(a.Changed) > 0:
		return fmt.Sprintf("%d snapshot file(s) changed", len(a.Changed))
	}
	return "no changes"
}
