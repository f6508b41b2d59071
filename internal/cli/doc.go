// Package cli wires together the Cobra command tree for the verdict binary.
//
// It defines the root command and its subcommands (triage, config, models,
// version), binds flags, reads configuration, runs the triage engine over a
// semgrep report and returns deterministic exit codes for CI gating.
package cli
