package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFileRef ties a configured prompt file path to the slot in the
// process-wide prompt store its contents belong in.
type promptFileRef struct {
	scope  string // "global", "analyze", "cover letter" or "refine"
	kind   string // "system" or "user"
	op     string // prompt the file overrides: "analyze", "coverLetter" or "refine"
	file   string
	target *string
}

// promptFileRefs enumerates every prompt file slot in the configuration,
// both the global set and the per-operation overrides. Entries with an
// empty file path are included so callers can decide how to treat them.
func (c *Config) promptFileRefs() []promptFileRef {
	var refs []promptFileRef

	add := func(scope string, cfg *PromptConfig, sys *LoadedSystemPrompts, usr *LoadedUserPrompts) {
		src := &cfg.SystemPrompts
		refs = append(refs,
			promptFileRef{scope, "system", "analyze", src.AnalyzeFile, &sys.Analyze},
			promptFileRef{scope, "system", "coverLetter", src.CoverLetterFile, &sys.CoverLetter},
			promptFileRef{scope, "system", "refine", src.RefineFile, &sys.Refine},
			promptFileRef{scope, "user", "analyze", cfg.UserPrompts.AnalyzeFile, &usr.Analyze},
			promptFileRef{scope, "user", "coverLetter", cfg.UserPrompts.CoverLetterFile, &usr.CoverLetter},
			promptFileRef{scope, "user", "refine", cfg.UserPrompts.RefineFile, &usr.Refine},
		)
	}

	add("global", &c.AI.CustomPrompts, &loadedPrompts.Global.SystemPrompts, &loadedPrompts.Global.UserPrompts)
	add("analyze", &c.AI.Analyze.CustomPrompts, &loadedPrompts.Analyze.SystemPrompts, &loadedPrompts.Analyze.UserPrompts)
	add("cover letter", &c.AI.Cover.CustomPrompts, &loadedPrompts.Cover.SystemPrompts, &loadedPrompts.Cover.UserPrompts)
	add("refine", &c.AI.Refine.CustomPrompts, &loadedPrompts.Refine.SystemPrompts, &loadedPrompts.Refine.UserPrompts)

	return refs
}

// loadPromptsFromFiles reads every prompt file referenced in the
// configuration into the process-wide prompt store. File contents take
// precedence over inline config values when prompts are resolved.
func (c *Config) loadPromptsFromFiles() error {
	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	loaded := 0
	for _, ref := range c.promptFileRefs() {
		if ref.file == "" {
			continue
		}
		content, err := readPromptFile(ref.file, ref.kind, ref.op)
		if err != nil {
			return fmt.Errorf("failed to load %s %s prompts: %w", ref.scope, ref.kind, err)
		}
		*ref.target = content
		loaded++
	}

	if loaded > 0 {
		log.Printf("[CONFIG] Loaded %d custom prompt file(s)", loaded)
	}
	return nil
}

// validatePromptFiles checks that every configured prompt file exists
// before any of them are read, so a bad path fails fast at startup.
func (c *Config) validatePromptFiles() error {
	var problems []string

	for _, ref := range c.promptFileRefs() {
		if ref.file == "" {
			continue
		}
		absPath, err := filepath.Abs(ref.file)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s %s prompt: %s", ref.kind, ref.op, ref.file))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s %s prompt file not found: %s", ref.kind, ref.op, absPath))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}

// readPromptFile reads a single prompt file and returns its trimmed
// contents. A prompt that trims down to nothing is an error, not an
// override.
func readPromptFile(filePath, kind, op string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", kind, op, filePath, err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", kind, op, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", kind, op, absPath, err)
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", kind, op, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from %s (%d characters)", kind, op, absPath, len(content))
	return content, nil
}
