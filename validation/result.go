package validation

import (
	"fmt"
	"sort"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one structured finding. RuleID is stable and meant to be
// asserted on by callers.
type Issue struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
}

// Location pins an issue to a node and/or edge.
type Location struct {
	NodeID string
	EdgeID string
}

// AtNode locates an issue on a node.
func AtNode(id string) Location { return Location{NodeID: id} }

// AtEdge locates an issue on an edge.
func AtEdge(id string) Location { return Location{EdgeID: id} }

// Result is the outcome of schema or graph validation. Findings are never
// returned as Go errors.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// NewResult returns an empty, valid result.
func NewResult() *Result {
	return &Result{Valid: true, Errors: []Issue{}, Warnings: []Issue{}}
}

// Errorf records an error.
func (r *Result) Errorf(rule string, at Location, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{
		RuleID: rule, Severity: SeverityError, Message: fmt.Sprintf(format, args...),
		NodeID: at.NodeID, EdgeID: at.EdgeID,
	})
	r.Valid = false
}

// Warnf records a warning. Warnings never affect Valid.
func (r *Result) Warnf(rule string, at Location, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{
		RuleID: rule, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...),
		NodeID: at.NodeID, EdgeID: at.EdgeID,
	})
}

// Merge appends other's findings to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = len(r.Errors) == 0
}

// Count returns how many findings of either severity carry rule.
func (r *Result) Count(rule string) int {
	n := 0
	for _, is := range r.Errors {
		if is.RuleID == rule {
			n++
		}
	}
	for _, is := range r.Warnings {
		if is.RuleID == rule {
			n++
		}
	}
	return n
}

// RuleIDs returns the distinct rule ids of all findings, sorted.
func (r *Result) RuleIDs() []string {
	seen := make(map[string]bool)
	for _, is := range r.Errors {
		seen[is.RuleID] = true
	}
	for _, is := range r.Warnings {
		seen[is.RuleID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns errors followed by warnings.
func (r *Result) All() []Issue {
	out := make([]Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}
