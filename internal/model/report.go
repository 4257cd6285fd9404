package model

import (
	"sort"
	"sync"
	"time"
)

// RunReport aggregates the outcomes of one pool run.
//
// Workers append results concurrently while the run is in flight; all
// mutation goes through Add so the internal slice stays consistent. Once
// the run returns, the report is effectively read-only.
type RunReport struct {
	// StartedAt is when the run began, after the environment reset.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall time of the run.
	Elapsed time.Duration `json:"elapsed"`

	// TotalInstances and MaxWorkers echo the pool configuration the run
	// executed under, for report rendering and persistence.
	TotalInstances int `json:"total_instances"`
	MaxWorkers     int `json:"max_workers"`

	mu      sync.Mutex
	results []ActionResult
}

// NewRunReport creates an empty report stamped with the current time.
func NewRunReport(totalInstances, maxWorkers int) *RunReport {
	return &RunReport{
		StartedAt:      time.Now(),
		TotalInstances: totalInstances,
		MaxWorkers:     maxWorkers,
	}
}

// Add records one action's result. Safe for concurrent use.
func (r *RunReport) Add(res ActionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of all recorded results sorted by action index.
// Execution order across workers is not deterministic, so sorting gives
// callers a stable view.
func (r *RunReport) Results() []ActionResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ActionResult, len(r.results))
	copy(out, r.results)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ActionIndex < out[j].ActionIndex
	})
	return out
}

// Len returns the number of recorded results.
func (r *RunReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Succeeded returns the count of successful actions.
func (r *RunReport) Succeeded() int { return r.count(StatusSucceeded) }

// Abandoned returns the count of actions that exhausted their retries.
func (r *RunReport) Abandoned() int { return r.count(StatusAbandoned) }

// Skipped returns the count of actions drained without execution.
func (r *RunReport) Skipped() int { return r.count(StatusSkipped) }

func (r *RunReport) count(status ActionStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, res := range r.results {
		if res.Status == status {
			n++
		}
	}
	return n
}
