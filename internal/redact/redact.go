package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// WithheldNotice replaces the content of files matched by a path policy.
const WithheldNotice = placeholder + " (file content withheld by path policy)"

type rule struct {
	name string
	re   *regexp.Regexp
}

// rules are regex heuristics for secret shapes that show up in scanned
// source. Order matters: provider-specific key formats precede the generic
// assignment patterns that would otherwise swallow them.
var rules = []rule{
	{"private-key", regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"google-api-key", regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"stripe-key", regexp.MustCompile(`[rs]k_live_[A-Za-z0-9]{16,}`)},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"bearer", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"connection-string", regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s:/@"']+:[^\s@/"']+@`)},
	{"api-key-assignment", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"secret-assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"hex-secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Result describes one redaction pass.
type Result struct {
	Text string
	// Count is the number of replaced matches; Kinds names the rules that fired.
	Count int
	Kinds []string
}

// Scrub replaces every detected secret in text with [REDACTED].
func Scrub(text string) Result {
	res := Result{Text: text}
	for _, r := range rules {
		n := 0
		res.Text = r.re.ReplaceAllStringFunc(res.Text, func(string) string {
			n++
			return placeholder
		})
		if n > 0 {
			res.Count += n
			res.Kinds = append(res.Kinds, r.name)
		}
	}
	return res
}

// Secrets is Scrub without the bookkeeping.
func Secrets(text string) string {
	return Scrub(text).Text
}

// PathMatches reports whether path matches any glob pattern. A leading "**/"
// also matches the base name alone.
func PathMatches(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		if clean, found := strings.CutPrefix(pattern, "**/"); found {
			if ok, err := filepath.Match(clean, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Context prepares file content for a prompt. A path matching one of
// pathPatterns yields WithheldNotice and true; anything else is scrubbed.
func Context(path, content string, pathPatterns []string) (string, bool) {
	if PathMatches(path, pathPatterns) {
		return WithheldNotice, true
	}
	return Secrets(content), false
}
