// Verdict triages semgrep findings with an LLM provider.
//
// It reads a semgrep JSON report, asks the configured provider whether each
// candidate finding is a false positive, removes confident false positives,
// enriches the rest with tailored remediation and writes text, JSON, SARIF or
// markdown output with exit codes suitable for CI gating.
//
// Usage:
//
//	semgrep --json --config p/python . > semgrep.json
//	verdict triage semgrep.json                      # text report to stdout
//	verdict triage --format sarif --out r.sarif semgrep.json
//	verdict triage --fail-on high semgrep.json       # exit 1 if high findings remain
//	verdict config init                              # write a default config file
//	verdict models doctor --provider anthropic       # check credentials
package main
