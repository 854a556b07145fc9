package ai

import (
	"strings"
	"testing"
)

func TestResolvePromptPriority(t *testing.T) {
	tests := []struct {
		name           string
		loadedFromFile string
		fromConfig     string
		fromDefault    string
		expected       string
	}{
		{
			name:           "file takes priority over config and default",
			loadedFromFile: "from file",
			fromConfig:     "from config",
			fromDefault:    "from default",
			expected:       "from file",
		},
		{
			name:        "config takes priority over default",
			fromConfig:  "from config",
			fromDefault: "from default",
			expected:    "from config",
		},
		{
			name:        "default used when nothing else set",
			fromDefault: "from default",
			expected:    "from default",
		},
		{
			name:     "all empty yields empty",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePrompt(tt.loadedFromFile, tt.fromConfig, tt.fromDefault)
			if got != tt.expected {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDefaultUserPromptsHavePlaceholders(t *testing.T) {
	prompts := map[string]string{
		"analyze": DefaultUserPrompts.Analyze,
		"cover":   DefaultUserPrompts.CoverLetter,
		"refine":  DefaultUserPrompts.Refine,
	}

	for name, prompt := range prompts {
		if count := strings.Count(prompt, "%s"); count != 2 {
			t.Errorf("%s user prompt should have 2 placeholders (resume, job), got %d", name, count)
		}
	}
}

func TestGetDefaultPromptConfig(t *testing.T) {
	cfg := GetDefaultPromptConfig()

	if cfg.SystemPrompts.Analyze == "" {
		t.Error("default analyze system prompt should not be empty")
	}
	if cfg.SystemPrompts.CoverLetter == "" {
		t.Error("default cover letter system prompt should not be empty")
	}
	if cfg.SystemPrompts.Refine == "" {
		t.Error("default refine system prompt should not be empty")
	}
	if !strings.Contains(cfg.UserPrompts.Refine, "Applicant Tracking Systems") {
		t.Error("refine user prompt should target ATS screening")
	}
}
