package report

import "github.com/nao1215/torsel/internal/model"

// Writer renders a run report to some destination.
//
// Design decision: an interface rather than free functions so the CLI can
// pick a format at runtime and tests can swap destinations.
type Writer interface {
	// Write renders the report. Returns the number of bytes written.
	Write(report *model.RunReport) (int, error)
}
