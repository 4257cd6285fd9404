package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/torsel/internal/model"
)

// MarkdownWriter outputs the run report as GitHub Flavored Markdown,
// suitable for run logs committed to documentation or pasted into issues.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the report as Markdown.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Torsel Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Instances", strconv.Itoa(report.TotalInstances)},
			{"Workers", strconv.Itoa(report.MaxWorkers)},
			{"Actions", strconv.Itoa(report.Len())},
			{"Succeeded", strconv.Itoa(report.Succeeded())},
			{"Abandoned", strconv.Itoa(report.Abandoned())},
			{"Skipped", strconv.Itoa(report.Skipped())},
		},
	})
	md.PlainText("")

	md.H2("Actions")
	md.PlainText("")

	rows := make([][]string, 0, report.Len())
	for _, res := range report.Results() {
		rows = append(rows, []string{
			strconv.Itoa(res.ActionIndex),
			strconv.Itoa(res.InstanceIndex),
			res.Status.String(),
			strconv.Itoa(res.Attempts),
			strconv.Itoa(res.Rotations),
			res.LastError,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Action", "Instance", "Status", "Attempts", "Rotations", "Last Error"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}
