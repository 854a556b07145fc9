package config

import "sync"

// Prompt files are read once per process; loadedPromptsOnce guards the load.
var (
	loadedPrompts     AllLoadedPrompts
	loadedPromptsOnce sync.Once
)

// LoadedSystemPrompts holds file-sourced system instructions per operation.
type LoadedSystemPrompts struct {
	Analyze     string
	CoverLetter string
	Refine      string
}

// LoadedUserPrompts holds file-sourced user prompt templates per operation.
type LoadedUserPrompts struct {
	Analyze     string
	CoverLetter string
	Refine      string
}

// LoadedPrompts pairs the system and user prompt sets loaded from files.
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// OperationLoadedPrompts is the file-sourced prompt set one operation sees.
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts collects the global prompt set plus per-operation overrides.
type AllLoadedPrompts struct {
	Global  LoadedPrompts
	Analyze OperationLoadedPrompts
	Cover   OperationLoadedPrompts
	Refine  OperationLoadedPrompts
}

// GetPromptsForOperation returns the loaded prompts for an operation type.
// Unknown types fall back to the global prompt set.
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	switch operationType {
	case "analyze":
		return loadedPrompts.Analyze
	case "cover":
		return loadedPrompts.Cover
	case "refine":
		return loadedPrompts.Refine
	}
	return OperationLoadedPrompts{
		SystemPrompts: loadedPrompts.Global.SystemPrompts,
		UserPrompts:   loadedPrompts.Global.UserPrompts,
	}
}
