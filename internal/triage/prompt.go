package triage

import (
	"fmt"
	"strings"

	"github.com/dshills/verdict/internal/finding"
)

const systemPrompt = `You are a security code reviewer who specializes in vulnerabilities of applications built on large language models.
You receive findings from the Semgrep static analyzer and decide whether each one is a true positive or a false positive.
You also write remediation guidance that is:
1. Specific to the code shown
2. Actionable, with concrete steps
3. Aware of the web framework in use (Flask, Django, FastAPI and similar)
4. Illustrated with code examples where they help
5. Grounded in the actual vulnerable pattern

Respond ONLY with valid JSON in the requested format.`

const responseSchema = `{
    "is_false_positive": true or false,
    "confidence": 0.0 to 1.0,
    "reasoning": "why this is or is not a false positive",
    "enhanced_remediation": "context-specific remediation guidance with code examples",
    "suggested_severity": "critical|high|medium|low (optional, only when it differs from the current severity)",
    "additional_context": {}
}`

// SystemPrompt returns the system prompt sent with every finding.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt renders the analysis prompt for one finding. codeContext is
// the already redacted context block.
func BuildPrompt(f *finding.Finding, codeContext string, guidance *Guidance) string {
	var b strings.Builder

	cwe := f.CWE
	if cwe == "" {
		cwe = "N/A"
	}
	remediation := f.Remediation
	if remediation == "" {
		remediation = "No remediation guidance available"
	}

	b.WriteString("Semgrep Finding:\n")
	fmt.Fprintf(&b, "- Rule ID: %s\n", f.RuleID)
	fmt.Fprintf(&b, "- Message: %s\n", f.Message)
	fmt.Fprintf(&b, "- Severity: %s\n", f.Severity)
	fmt.Fprintf(&b, "- Category: %s\n", f.Category)
	fmt.Fprintf(&b, "- CWE: %s\n", cwe)
	fmt.Fprintf(&b, "- Location: %s:%d:%d\n", f.Location.FilePath, f.Location.StartLine, f.Location.StartColumn)

	fmt.Fprintf(&b, "\nRule Description:\n%s\n", f.Description())
	fmt.Fprintf(&b, "\nOriginal Remediation Guidance (from rule):\n%s\n", remediation)

	if len(f.Dataflow) > 0 {
		b.WriteString("\nDataflow Trace:\n")
		for _, step := range f.Dataflow {
			fmt.Fprintf(&b, "- %s:%d:%d %s\n", step.FilePath, step.StartLine, step.StartColumn, step.Message)
		}
	}

	fmt.Fprintf(&b, "\nCode Context:\n%s\n", codeContext)

	b.WriteString(`
Tasks:
1. Decide whether this is a true positive or a false positive. Consider:
   - Is the vulnerability actually exploitable in this context?
   - Are there mitigations such as validation, sanitization or framework protections?
   - Is the code pattern actually dangerous here?
   - Could an attacker realistically exploit it?

2. Write enhanced remediation guidance that is:
   - Specific to this exact code pattern
   - Actionable, with step-by-step instructions
   - Framework-aware when a framework is detected
   - Illustrated with code showing the fix
   - More detailed than the generic rule guidance
`)

	if section := guidance.promptSection(); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\nRespond in JSON format:\n")
	b.WriteString(responseSchema)
	b.WriteString("\n")

	return b.String()
}
