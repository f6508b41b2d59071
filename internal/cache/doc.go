// Package cache provides the in-memory verdict cache used by triage.
//
// Entries are keyed by the rule id plus a SHA-256 hash of the rule id, code
// snippet and start line. Verdicts live for the lifetime of one engine and
// are never written to disk, so every scan starts cold.
package cache
