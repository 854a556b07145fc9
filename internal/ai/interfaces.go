package ai

import (
	"context"

	"jobalign/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	AnalyzeAlignment(ctx context.Context, input types.AlignmentInput) (types.AnalyzeOutput, *TokenUsage, error)
	DraftCoverLetter(ctx context.Context, input types.AlignmentInput) (types.CoverLetterOutput, *TokenUsage, error)
	RefineResume(ctx context.Context, input types.AlignmentInput) (types.RefineOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// PromptBuilder interface for building AI prompts
type PromptBuilder interface {
	BuildAnalyzePrompt(resume, jobDescription string) string
	BuildCoverLetterPrompt(resume, jobDescription string) string
	BuildRefinePrompt(resume, jobDescription string) string
}
