package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/torsel/internal/model"
)

// timeRounding keeps elapsed times readable in report output.
const timeRounding = 10 * time.Millisecond

// SimpleWriter outputs a human-readable text summary.
//
// Design decision: plain text with ASCII formatting rather than ANSI
// colors, so output pipes cleanly to files and other tools.
type SimpleWriter struct {
	output io.Writer

	// verbose adds a per-action table below the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-action breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the report as text.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("Torsel Run Summary\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Elapsed:    %s\n", report.Elapsed.Round(timeRounding))
	fmt.Fprintf(&sb, "Instances:  %d\n", report.TotalInstances)
	fmt.Fprintf(&sb, "Workers:    %d\n", report.MaxWorkers)
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&sb, "Actions:    %d\n", report.Len())
	fmt.Fprintf(&sb, "Succeeded:  %d\n", report.Succeeded())
	fmt.Fprintf(&sb, "Abandoned:  %d\n", report.Abandoned())
	fmt.Fprintf(&sb, "Skipped:    %d\n", report.Skipped())

	if w.verbose {
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, res := range report.Results() {
			fmt.Fprintf(&sb, "action %3d  instance %2d  %-9s  attempts=%d rotations=%d",
				res.ActionIndex, res.InstanceIndex, res.Status, res.Attempts, res.Rotations)
			if res.LastError != "" {
				fmt.Fprintf(&sb, "  error=%s", res.LastError)
			}
			sb.WriteString("\n")
		}
	}

	return w.output.Write([]byte(sb.String()))
}
