package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/verdict/internal/codectx"
	"github.com/dshills/verdict/internal/config"
	"github.com/dshills/verdict/internal/finding"
	"github.com/dshills/verdict/internal/logging"
	"github.com/dshills/verdict/internal/metrics"
	"github.com/dshills/verdict/internal/output"
	"github.com/dshills/verdict/internal/providers"
	"github.com/dshills/verdict/internal/semgrep"
	"github.com/dshills/verdict/internal/triage"
)

// Triage flags
var (
	flagProvider        string
	flagModel           string
	flagAPIKey          string
	flagBaseURL         string
	flagThreshold       float64
	flagBatchSize       int
	flagAnalyzeRules    string
	flagMaxFindings     int
	flagConcurrency     int
	flagContextLines    int
	flagRPS             float64
	flagFormat          string
	flagOut             string
	flagFailOn          string
	flagGuidance        string
	flagSourceRoot      string
	flagMetricsOut      string
	flagNoCache         bool
	flagNoAI            bool
	flagNoRedact        bool
	flagIncludeFiltered bool
	flagDebug           bool
	flagLogJSON         bool
	flagQuiet           bool
)

func addTriageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagProvider, "provider", "", "AI provider (openai, anthropic, gemini, ollama)")
	f.StringVar(&flagModel, "model", "", "Model name (default depends on provider)")
	f.StringVar(&flagAPIKey, "api-key", "", "API key (default: provider environment variable)")
	f.StringVar(&flagBaseURL, "base-url", "", "Override the provider API base URL")
	f.Float64Var(&flagThreshold, "threshold", -1, "Minimum confidence for filtering a false positive (0-1)")
	f.IntVar(&flagBatchSize, "batch-size", 0, "Findings per progress batch")
	f.StringVar(&flagAnalyzeRules, "analyze-rules", "", "Only analyze these rule IDs (comma-separated)")
	f.IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings to analyze")
	f.IntVar(&flagConcurrency, "concurrency", 0, "Concurrent provider requests")
	f.IntVar(&flagContextLines, "context-lines", 0, "Lines of code context around each finding")
	f.Float64Var(&flagRPS, "rps", 0, "Maximum provider requests per second (0 = unlimited)")
	f.StringVar(&flagFormat, "format", "", "Output format (text, json, sarif, markdown)")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.StringVar(&flagFailOn, "fail-on", "", "Exit 1 when kept findings meet this severity (none, info, low, medium, high, critical)")
	f.StringVar(&flagGuidance, "guidance", "", "YAML file with project-specific analysis guidance")
	f.StringVar(&flagSourceRoot, "source-root", "", "Directory finding paths are relative to (default: working directory)")
	f.StringVar(&flagMetricsOut, "metrics-out", "", "Write Prometheus metrics in text format to this file")
	f.BoolVar(&flagNoCache, "no-cache", false, "Disable the verdict cache")
	f.BoolVar(&flagNoAI, "no-ai", false, "Skip AI analysis and pass scanner findings through")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVar(&flagIncludeFiltered, "include-filtered", false, "List filtered findings separately in the report")
	f.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	f.BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON")
	f.BoolVar(&flagQuiet, "quiet", false, "Only log warnings and errors")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagAPIKey != "" {
		m["apiKey"] = flagAPIKey
	}
	if flagBaseURL != "" {
		m["baseURL"] = flagBaseURL
	}
	if flagThreshold >= 0 {
		m["threshold"] = strconv.FormatFloat(flagThreshold, 'f', -1, 64)
	}
	if flagBatchSize > 0 {
		m["batchSize"] = strconv.Itoa(flagBatchSize)
	}
	if flagAnalyzeRules != "" {
		m["analyzeRules"] = flagAnalyzeRules
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = strconv.Itoa(flagMaxFindings)
	}
	if flagConcurrency > 0 {
		m["concurrency"] = strconv.Itoa(flagConcurrency)
	}
	if flagContextLines > 0 {
		m["contextLines"] = strconv.Itoa(flagContextLines)
	}
	if flagRPS > 0 {
		m["requestsPerSecond"] = strconv.FormatFloat(flagRPS, 'f', -1, 64)
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagGuidance != "" {
		m["guidanceFile"] = flagGuidance
	}
	if flagNoCache {
		m["cache"] = "false"
	}
	if flagNoAI {
		m["aiFilter"] = "false"
	}
	if flagNoRedact {
		m["redactSecrets"] = "false"
	}
	return m
}

// engineConfig maps the CLI configuration onto the engine's.
func engineConfig(cfg config.Config) triage.Config {
	return triage.Config{
		EnableAIFilter:      cfg.AIFilter,
		ConfidenceThreshold: cfg.Threshold,
		BatchSize:           cfg.BatchSize,
		AnalyzeRules:        cfg.AnalyzeRules,
		MaxFindings:         cfg.MaxFindings,
		CacheEnabled:        cfg.Cache.Enabled,
		Concurrency:         cfg.Concurrency,
		ContextLines:        cfg.ContextLines,
		RedactSecrets:       cfg.Privacy.RedactSecrets,
		RedactPaths:         cfg.Privacy.RedactPaths,
	}
}

func providerConfig(cfg config.Config) providers.Config {
	return providers.Config{
		Provider:          cfg.Provider,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

var triageCmd = &cobra.Command{
	Use:   "triage <semgrep.json>",
	Short: "Triage a semgrep JSON report with an AI provider",
	Long: `Triage reads a semgrep JSON report ("-" for stdin), asks the configured AI
provider whether each selected finding is a false positive, drops the ones it
is confident about and enriches the rest with tailored remediation.

Provider failures never fail the run: affected findings are kept unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		log, err := logging.New(logging.Options{Debug: flagDebug, JSON: flagLogJSON, Quiet: flagQuiet})
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		exitCode = runTriage(cmd.Context(), args[0], cfg, log)
		return nil
	},
}

func runTriage(ctx context.Context, input string, cfg config.Config, log *zap.Logger) int {
	findings, rep, err := semgrep.Load(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}
	log.Info("loaded semgrep report", zap.String("input", input), zap.Int("findings", len(findings)), zap.Int("scanner_errors", len(rep.Errors)))

	guidance, err := triage.LoadGuidance(cfg.GuidanceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}
	if !cfg.Privacy.RedactSecrets && cfg.AIFilter {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	var rec *metrics.Recorder
	if flagMetricsOut != "" {
		rec = metrics.New()
	}

	engine := triage.NewFromConfig(providerConfig(cfg), engineConfig(cfg),
		triage.WithLogger(log),
		triage.WithMetrics(rec),
		triage.WithGuidance(guidance),
		triage.WithSources(codectx.NewDisk(flagSourceRoot)),
	)
	if err := engine.InitError(); err != nil && providers.IsAuthError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	res := engine.Run(ctx, findings)

	report := output.NewReport(res, input, version, flagIncludeFiltered)
	for _, e := range rep.Errors {
		report.ScannerErrors = append(report.ScannerErrors, e.Message)
	}
	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return ExitRuntimeError
	}

	s := report.Summary
	log.Info("triage complete",
		zap.String("run_id", report.RunID),
		zap.Int("total", s.Total),
		zap.Int("analyzed", s.Analyzed),
		zap.Int("filtered", s.Filtered),
		zap.Int("enhanced", s.Enhanced),
		zap.Int("kept", s.Kept),
		zap.Int("errors", s.Errors))

	if rec != nil {
		if err := rec.WriteFile(flagMetricsOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			return ExitRuntimeError
		}
	}

	if res.Canceled {
		fmt.Fprintln(os.Stderr, "Triage interrupted; report contains partial AI results")
		return ExitRuntimeError
	}
	if failOn(report, cfg.FailOn) {
		return ExitFindings
	}
	return ExitSuccess
}

// failOn reports whether any kept finding meets the fail-on level.
func failOn(report *output.Report, level string) bool {
	if level == "" || level == "none" {
		return false
	}
	sev, ok := finding.ParseSeverity(level)
	if !ok {
		return false
	}
	return report.CountAtOrAbove(sev) > 0
}

func init() {
	addTriageFlags(triageCmd)
}
