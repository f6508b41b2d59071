// Package providers implements the Analyzer interface for each supported LLM
// provider.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Google (Gemini), and
// Ollama / LMStudio for local models. OpenAI models with a JSON output mode
// and Gemini are asked for application/json; the others are free-text and
// get an explicit JSON-only instruction or rely on caller-side recovery.
//
// Each Analyze call is a single request with a fixed timeout. The only
// automatic retry is OpenAI's fallback when response_format is rejected.
// Failures are typed ([*APIError], [ErrRateLimited], [ErrAuth], [ErrTimeout])
// and [Classify] reduces them to an [ErrorKind] for reporting.
//
// HTTP clients are injected via a transport field so that tests can redirect
// calls to local httptest servers without making live API requests.
//
// Use [New] to obtain an Analyzer from a [Config].
package providers
