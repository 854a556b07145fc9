package cli

import (
	"context"
	"fmt"

	"jobalign/internal/ai"
	"jobalign/internal/common"
	"jobalign/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Analyze how well a resume aligns with a job description",
	Long: `Analyze the alignment between your resume and a job description using AI.
The command takes two arguments: the path to your resume file and the path
to the job description file. Files may be plain text, Markdown, PDF, or DOCX;
PDF and DOCX files have their text extracted automatically.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputFormatPreRun(&analyzeConfig),
	RunE:    runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	registerOutputFlags(analyzeCmd, &analyzeConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for the analyze operation
	analyzeAIConfig := cfg.GetAnalyzeConfig()
	aiService, err := ai.NewService(&analyzeAIConfig, "analyze", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	logDetails := func(input types.AlignmentInput, cfg common.CommandConfig) {
		logger.Info("Starting alignment analysis",
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, input types.AlignmentInput) (types.AnalyzeOutput, *ai.TokenUsage, error) {
		return aiService.Provider.AnalyzeAlignment(ctx, input)
	}

	err = common.RunAICommand(cmd.Context(), logger, analyzeConfig, args,
		alignmentInputFromFiles, analyzeOperation, logDetails)
	if err != nil {
		return fmt.Errorf("failed to analyze alignment: %w", err)
	}
	logger.Info("Alignment analysis completed successfully")
	return nil
}
