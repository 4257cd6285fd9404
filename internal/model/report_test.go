package model

import (
	"sync"
	"testing"
)

// TestRunReportAdd tests concurrent result recording.
func TestRunReportAdd(t *testing.T) {
	t.Parallel()

	t.Run("concurrent adds are all recorded", func(t *testing.T) {
		t.Parallel()

		report := NewRunReport(3, 5)

		const n = 100
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				report.Add(ActionResult{
					ActionIndex:   idx,
					InstanceIndex: idx % 3,
					Status:        StatusSucceeded,
					Attempts:      1,
				})
			}(i)
		}
		wg.Wait()

		if report.Len() != n {
			t.Errorf("Len() = %d, want %d", report.Len(), n)
		}
		if report.Succeeded() != n {
			t.Errorf("Succeeded() = %d, want %d", report.Succeeded(), n)
		}
	})

	t.Run("results are sorted by action index", func(t *testing.T) {
		t.Parallel()

		report := NewRunReport(2, 2)
		for _, idx := range []int{3, 0, 2, 1} {
			report.Add(ActionResult{ActionIndex: idx})
		}

		results := report.Results()
		for i, res := range results {
			if res.ActionIndex != i {
				t.Errorf("Results()[%d].ActionIndex = %d, want %d", i, res.ActionIndex, i)
			}
		}
	})
}

// TestRunReportCounts tests the per-status counters.
func TestRunReportCounts(t *testing.T) {
	t.Parallel()

	report := NewRunReport(1, 1)
	report.Add(ActionResult{ActionIndex: 0, Status: StatusSucceeded})
	report.Add(ActionResult{ActionIndex: 1, Status: StatusAbandoned})
	report.Add(ActionResult{ActionIndex: 2, Status: StatusAbandoned})
	report.Add(ActionResult{ActionIndex: 3, Status: StatusSkipped})

	if got := report.Succeeded(); got != 1 {
		t.Errorf("Succeeded() = %d, want 1", got)
	}
	if got := report.Abandoned(); got != 2 {
		t.Errorf("Abandoned() = %d, want 2", got)
	}
	if got := report.Skipped(); got != 1 {
		t.Errorf("Skipped() = %d, want 1", got)
	}
}
