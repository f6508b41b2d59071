// Package redact removes secrets from code context and finding text before
// they are sent to a model provider.
//
// Detection uses regex heuristics: private key headers, JWTs, bearer tokens,
// credentials embedded in connection strings, secret-looking assignments and
// provider-specific key formats (AWS, Google, GitHub, Slack, Stripe,
// Anthropic, OpenAI).
//
// Path-based redaction is also supported: files whose paths match configured
// glob patterns are withheld instead of being scanned.
package redact
