package triage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Guidance is an optional, project-specific instruction pack appended to
// every analysis prompt.
type Guidance struct {
	// Context describes the application (framework, trust boundaries).
	Context string `yaml:"context,omitempty"`
	// Mitigations lists protections the model should take into account.
	Mitigations []string        `yaml:"mitigations,omitempty"`
	Required    []RequiredCheck `yaml:"required,omitempty"`
}

// RequiredCheck is a policy check the model must always evaluate.
type RequiredCheck struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// LoadGuidance reads a guidance file. An empty path returns nil and no error.
func LoadGuidance(path string) (*Guidance, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guidance file: %w", err)
	}
	var g Guidance
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing guidance file: %w", err)
	}
	return &g, nil
}

func (g *Guidance) promptSection() string {
	if g == nil {
		return ""
	}

	var b strings.Builder
	if c := strings.TrimSpace(g.Context); c != "" {
		fmt.Fprintf(&b, "\nApplication context:\n%s\n", c)
	}
	if len(g.Mitigations) > 0 {
		b.WriteString("\nKnown mitigations in this codebase:\n")
		for _, m := range g.Mitigations {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	if len(g.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range g.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}
	return b.String()
}
