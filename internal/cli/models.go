package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/verdict/internal/config"
	"github.com/dshills/verdict/internal/providers"
	"github.com/dshills/verdict/internal/recovery"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider providers.Kind
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: providers.KindOpenAI,
		Models: []string{
			"gpt-4",
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
			"gpt-3.5-turbo",
		},
	},
	{
		Provider: providers.KindAnthropic,
		Models: []string{
			"claude-3-opus-20240229",
			"claude-sonnet-4-20250514",
			"claude-3-5-haiku-20241022",
		},
	},
	{
		Provider: providers.KindGemini,
		Models: []string{
			"gemini-2.0-flash",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
	{
		Provider: providers.KindOllama,
		Models: []string{
			"llama3",
			"llama3.1",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s:\n", info.Provider)
			def := providers.DefaultModel(info.Provider)
			for _, m := range info.Models {
				var notes string
				if m == def {
					notes += " (default)"
				}
				if info.Provider == providers.KindOpenAI && providers.SupportsJSONMode(m) {
					notes += " [json mode]"
				}
				fmt.Fprintf(out, "  - %s%s\n", m, notes)
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials with a test request",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", cfg.Provider)

		p, err := providers.New(providerConfig(cfg))
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		resp, err := p.Analyze(ctx, providers.Request{
			SystemPrompt: "You are a health check. " + providers.JSONOnlyInstruction,
			Prompt:       `Reply with {"ok": true}`,
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}
		if resp.Parsed == nil {
			if _, err := recovery.Parse(resp.Content); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "WARN: %s responded but not with JSON: %v\n", p.Name(), err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", p.Name())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
	modelsDoctorCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Override the provider API base URL")
}
