// Package finding defines the data model shared by every stage of triage.
//
// A [Finding] is produced by the static scanner and mutated exactly once per
// run by the triage engine, which attaches a [Verdict], may overwrite the
// remediation text, and may mark the finding as filtered. Filtering is a view
// over the findings list: filtered findings are left out of the output but
// never destroyed.
//
// [VerdictFromMap] turns a loosely-typed model response into a Verdict.
// Malformed fields are normalised rather than reported: confidence defaults to
// 0.5 and an unrecognised suggested severity is dropped.
package finding
