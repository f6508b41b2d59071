// Package triage runs model analysis over scanner findings.
//
// An [Engine] selects candidates, asks a provider for a verdict on each one,
// recovers JSON from the reply, and applies the verdict: the verdict is
// attached, enhanced remediation replaces the scanner's text, and confident
// false positives are marked filtered. Per-finding failures never abort a
// run; they are recorded as [Outcome] values and the finding is kept
// unmodified. When AI analysis is disabled or the provider cannot be
// created, Run returns the input unchanged.
package triage
