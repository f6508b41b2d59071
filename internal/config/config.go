package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the effective verdict configuration.
type Config struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model,omitempty"`
	APIKey            string        `yaml:"apiKey,omitempty"`
	BaseURL           string        `yaml:"baseURL,omitempty"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond,omitempty"`
	Format            string        `yaml:"format"`
	FailOn            string        `yaml:"failOn"`
	AIFilter          bool          `yaml:"aiFilter"`
	Threshold         float64       `yaml:"threshold"`
	BatchSize         int           `yaml:"batchSize"`
	MaxFindings       int           `yaml:"maxFindings"`
	AnalyzeRules      []string      `yaml:"analyzeRules,omitempty"`
	Concurrency       int           `yaml:"concurrency"`
	ContextLines      int           `yaml:"contextLines"`
	GuidanceFile      string        `yaml:"guidanceFile,omitempty"`
	Cache             CacheConfig   `yaml:"cache"`
	Privacy           PrivacyConfig `yaml:"privacy"`
}

// CacheConfig controls verdict caching.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PrivacyConfig controls prompt redaction.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// File is the on-disk form. Pointer fields distinguish "unset" from an
// explicit zero or false.
type File struct {
	Provider          string   `yaml:"provider,omitempty"`
	Model             string   `yaml:"model,omitempty"`
	APIKey            string   `yaml:"apiKey,omitempty"`
	BaseURL           string   `yaml:"baseURL,omitempty"`
	RequestsPerSecond *float64 `yaml:"requestsPerSecond,omitempty"`
	Format            string   `yaml:"format,omitempty"`
	FailOn            string   `yaml:"failOn,omitempty"`
	AIFilter          *bool    `yaml:"aiFilter,omitempty"`
	Threshold         *float64 `yaml:"threshold,omitempty"`
	BatchSize         *int     `yaml:"batchSize,omitempty"`
	MaxFindings       *int     `yaml:"maxFindings,omitempty"`
	AnalyzeRules      []string `yaml:"analyzeRules,omitempty"`
	Concurrency       *int     `yaml:"concurrency,omitempty"`
	ContextLines      *int     `yaml:"contextLines,omitempty"`
	GuidanceFile      string   `yaml:"guidanceFile,omitempty"`
	Cache             struct {
		Enabled *bool `yaml:"enabled,omitempty"`
	} `yaml:"cache,omitempty"`
	Privacy struct {
		RedactSecrets *bool    `yaml:"redactSecrets,omitempty"`
		RedactPaths   []string `yaml:"redactPaths,omitempty"`
	} `yaml:"privacy,omitempty"`
}

// Output formats and fail-on levels accepted by Validate.
var (
	Formats       = []string{"text", "json", "sarif", "markdown"}
	FailOnLevels  = []string{"none", "info", "low", "medium", "high", "critical"}
	ErrInvalidKey = errors.New("unknown config key")
)

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:     "openai",
		Format:       "text",
		FailOn:       "none",
		AIFilter:     true,
		Threshold:    0.7,
		BatchSize:    10,
		Concurrency:  1,
		ContextLines: 50,
		Cache:        CacheConfig{Enabled: true},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*.pem", "**/*.key", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for verdict.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "verdict"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "verdict"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "verdict"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "verdict"), nil
	default:
		return filepath.Join(home, ".config", "verdict"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile reads the config file. A missing file returns a zero File and no
// error.
func LoadFile() (File, error) {
	path, err := ConfigPath()
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing config file: %w", err)
	}
	return f, nil
}

// Save writes cfg to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	// The file may hold an API key.
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags and uses SetField key names.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, src File) {
	setString(&dst.Provider, src.Provider)
	setString(&dst.Model, src.Model)
	setString(&dst.APIKey, src.APIKey)
	setString(&dst.BaseURL, src.BaseURL)
	setString(&dst.Format, src.Format)
	setString(&dst.FailOn, src.FailOn)
	setString(&dst.GuidanceFile, src.GuidanceFile)
	setPtr(&dst.RequestsPerSecond, src.RequestsPerSecond)
	setPtr(&dst.AIFilter, src.AIFilter)
	setPtr(&dst.Threshold, src.Threshold)
	setPtr(&dst.BatchSize, src.BatchSize)
	setPtr(&dst.MaxFindings, src.MaxFindings)
	setPtr(&dst.Concurrency, src.Concurrency)
	setPtr(&dst.ContextLines, src.ContextLines)
	setPtr(&dst.Cache.Enabled, src.Cache.Enabled)
	setPtr(&dst.Privacy.RedactSecrets, src.Privacy.RedactSecrets)
	if len(src.AnalyzeRules) > 0 {
		dst.AnalyzeRules = src.AnalyzeRules
	}
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// envKeys maps environment variables to SetField keys, in merge order.
var envKeys = []struct{ env, key string }{
	{"VERDICT_PROVIDER", "provider"},
	{"VERDICT_MODEL", "model"},
	{"VERDICT_API_KEY", "apiKey"},
	{"VERDICT_BASE_URL", "baseURL"},
	{"VERDICT_RPS", "requestsPerSecond"},
	{"VERDICT_FORMAT", "format"},
	{"VERDICT_FAIL_ON", "failOn"},
	{"VERDICT_AI_FILTER", "aiFilter"},
	{"VERDICT_THRESHOLD", "threshold"},
	{"VERDICT_BATCH_SIZE", "batchSize"},
	{"VERDICT_MAX_FINDINGS", "maxFindings"},
	{"VERDICT_ANALYZE_RULES", "analyzeRules"},
	{"VERDICT_CONCURRENCY", "concurrency"},
	{"VERDICT_CONTEXT_LINES", "contextLines"},
	{"VERDICT_GUIDANCE_FILE", "guidanceFile"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("flag %s: %w", key, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name.
func SetField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "apiKey":
		cfg.APIKey = value
	case "baseURL":
		cfg.BaseURL = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "guidanceFile":
		cfg.GuidanceFile = value
	case "requestsPerSecond":
		cfg.RequestsPerSecond, err = parseFloat(key, value)
	case "threshold":
		cfg.Threshold, err = parseFloat(key, value)
	case "batchSize":
		cfg.BatchSize, err = parseInt(key, value)
	case "maxFindings":
		cfg.MaxFindings, err = parseInt(key, value)
	case "concurrency":
		cfg.Concurrency, err = parseInt(key, value)
	case "contextLines":
		cfg.ContextLines, err = parseInt(key, value)
	case "aiFilter":
		cfg.AIFilter, err = parseBool(key, value)
	case "cache":
		cfg.Cache.Enabled, err = parseBool(key, value)
	case "redactSecrets":
		cfg.Privacy.RedactSecrets, err = parseBool(key, value)
	case "analyzeRules":
		cfg.AnalyzeRules = splitList(value)
	case "redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return err
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseFloat(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Threshold < 0 || c.Threshold > 1:
		return fmt.Errorf("threshold must be between 0 and 1, got %v", c.Threshold)
	case c.BatchSize < 1:
		return fmt.Errorf("batchSize must be at least 1, got %d", c.BatchSize)
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	case c.MaxFindings < 0:
		return fmt.Errorf("maxFindings must not be negative, got %d", c.MaxFindings)
	case c.ContextLines < 0:
		return fmt.Errorf("contextLines must not be negative, got %d", c.ContextLines)
	case c.RequestsPerSecond < 0:
		return fmt.Errorf("requestsPerSecond must not be negative, got %v", c.RequestsPerSecond)
	case !slices.Contains(Formats, c.Format):
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), c.Format)
	case !slices.Contains(FailOnLevels, c.FailOn):
		return fmt.Errorf("failOn must be one of %s, got %q", strings.Join(FailOnLevels, ", "), c.FailOn)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "********"
	}
	return c
}

// MergeFile applies the config file, if any, on top of cfg.
func MergeFile(cfg *Config) error {
	f, err := LoadFile()
	if err != nil {
		return err
	}
	mergeFile(cfg, f)
	return nil
}
