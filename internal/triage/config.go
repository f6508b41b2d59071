package triage

// Defaults for Config.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultBatchSize           = 10
	DefaultContextLines        = 50
)

// DefaultRedactPaths are withheld from prompts entirely.
var DefaultRedactPaths = []string{"**/.env", "**/*.pem", "**/*.key", "**/*secrets*"}

// Config controls one engine.
type Config struct {
	EnableAIFilter bool
	// ConfidenceThreshold is the minimum verdict confidence for a false
	// positive to be filtered. The comparison is inclusive.
	ConfidenceThreshold float64
	// BatchSize groups findings of one file for progress reporting.
	BatchSize int
	// AnalyzeRules restricts analysis to these rule ids (plus rules whose
	// metadata recommends analysis).
	AnalyzeRules []string
	// MaxFindings caps the number of analyzed findings; zero is unlimited.
	MaxFindings  int
	CacheEnabled bool
	// Concurrency is the number of in-flight provider calls.
	Concurrency  int
	ContextLines int
	// RedactSecrets scrubs code context before it leaves the process.
	RedactSecrets bool
	RedactPaths   []string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		EnableAIFilter:      true,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		BatchSize:           DefaultBatchSize,
		CacheEnabled:        true,
		Concurrency:         1,
		ContextLines:        DefaultContextLines,
		RedactSecrets:       true,
		RedactPaths:         DefaultRedactPaths,
	}
}

func (c Config) normalized() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.ContextLines < 0 {
		c.ContextLines = DefaultContextLines
	}
	return c
}
