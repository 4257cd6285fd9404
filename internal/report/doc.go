// Package report renders run reports for humans.
//
// Two formats exist: a plain-text summary for terminal display and a
// Markdown report for documentation and sharing. Both consume the same
// model.RunReport.
package report
