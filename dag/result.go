package dag

import (
	"slices"
	"time"
)

// Node result statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result holds the outcome of an Engine run.
type Result struct {
	NodeResults map[string]NodeResult
	Duration    time.Duration
}

// Failed returns the ids of failed nodes, sorted.
func (r *Result) Failed() []string {
	var ids []string
	for id, nr := range r.NodeResults {
		if nr.Status == StatusFailed {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// NodeResult holds the outcome of a single node task.
type NodeResult struct {
	Name     string
	Status   string // "completed" | "failed"
	Duration time.Duration
	Error    error
}
