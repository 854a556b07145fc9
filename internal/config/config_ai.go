package config

// fallbackStr fills dst from def when dst is empty.
func fallbackStr(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// applyOperationDefaults fills unset per-operation fields from the global AI
// section. Pointer fields distinguish "not set" from a deliberate zero.
func (c *Config) applyOperationDefaults(op *OperationAIConfig) {
	ai := &c.AI
	fallbackStr(&op.Provider, ai.Provider)
	fallbackStr(&op.Model, ai.Model)
	fallbackStr(&op.APIKey, ai.APIKey)
	if op.Timeout == nil {
		op.Timeout = &ai.Timeout
	}
	if op.MaxRetries == nil {
		op.MaxRetries = &ai.MaxRetries
	}
	if op.Temperature == nil {
		op.Temperature = &ai.Temperature
	}
	if op.UseSystemPrompts == nil {
		op.UseSystemPrompts = &ai.UseSystemPrompts
	}
}

// GetAnalyzeConfig resolves the effective AI settings for alignment analysis,
// layering the analyze section over the global AI section.
func (c *Config) GetAnalyzeConfig() OperationAIConfig {
	cfg := c.AI.Analyze
	c.applyOperationDefaults(&cfg)

	global := &c.AI.CustomPrompts
	fallbackStr(&cfg.CustomPrompts.SystemPrompts.Analyze, global.SystemPrompts.Analyze)
	fallbackStr(&cfg.CustomPrompts.UserPrompts.Analyze, global.UserPrompts.Analyze)
	fallbackStr(&cfg.CustomPrompts.SystemPrompts.AnalyzeFile, global.SystemPrompts.AnalyzeFile)
	fallbackStr(&cfg.CustomPrompts.UserPrompts.AnalyzeFile, global.UserPrompts.AnalyzeFile)
	return cfg
}

// GetCoverConfig resolves the effective AI settings for cover letter drafting.
func (c *Config) GetCoverConfig() OperationAIConfig {
	cfg := c.AI.Cover
	c.applyOperationDefaults(&cfg)

	global := &c.AI.CustomPrompts
	fallbackStr(&cfg.CustomPrompts.SystemPrompts.CoverLetter, global.SystemPrompts.CoverLetter)
	fallbackStr(&cfg.CustomPrompts.UserPrompts.CoverLetter, global.UserPrompts.CoverLetter)
	fallbackStr(&cfg.CustomPrompts.SystemPrompts.CoverLetterFile, global.SystemPrompts.CoverLetterFile)
	fallbackStr(&cfg.CustomPrompts.UserPrompts.CoverLetterFile, global.UserPrompts.CoverLetterFile)
	return cfg
}

// GetRefineConfig resolves the effective AI settings for resume refinement.
func (c *Config) GetRefineConfig() OperationAIConfig {
	cfg := c.AI.Refine
	c.applyOperationDefaults(&cfg)

	global := &c.AI.CustomPrompts
	fallbackStr(&cfg.CustomPrompts.SystemPrompts.Refine, global.SystemPrompts.Refine)
	fallbackStr(&cfg.CustomPrompts.UserPrompts.Refine, global.UserPrompts.Refine)
	fallbackStr(&cfg.CustomPrompts.SystemPrompts.RefineFile, global.SystemPrompts.RefineFile)
	fallbackStr(&cfg.CustomPrompts.UserPrompts.RefineFile, global.UserPrompts.RefineFile)
	return cfg
}
