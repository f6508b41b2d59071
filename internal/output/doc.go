// Package output formats triage reports for display or machine consumption.
//
// Four formats are supported:
//   - text: human-readable terminal output grouped by file (default)
//   - json: full structured report including AI verdicts
//   - markdown: PR-comment-friendly with collapsible sections per severity
//   - sarif: SARIF v2.1.0 for code-scanning upload
//
// Build a [Report] with [NewReport], then use [GetWriter] or [WriteReport].
package output
