package cli

import (
	"context"
	"fmt"

	"jobalign/internal/ai"
	"jobalign/internal/common"
	"jobalign/internal/types"

	"github.com/spf13/cobra"
)

var coverCmd = &cobra.Command{
	Use:   "cover [resume-file] [job-description-file]",
	Short: "Draft a cover letter for a specific job description",
	Long: `Draft a tailored cover letter from your resume and a job description using AI.
The command takes two arguments: the path to your resume file and the path
to the job description file. Files may be plain text, Markdown, PDF, or DOCX.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputFormatPreRun(&coverConfig),
	RunE:    runCover,
}

var coverConfig common.CommandConfig

func init() {
	registerOutputFlags(coverCmd, &coverConfig)
}

func runCover(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for the cover letter operation
	coverAIConfig := cfg.GetCoverConfig()
	aiService, err := ai.NewService(&coverAIConfig, "cover", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	logDetails := func(input types.AlignmentInput, cfg common.CommandConfig) {
		logger.Info("Starting cover letter draft",
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	coverOperation := func(ctx context.Context, input types.AlignmentInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
		return aiService.Provider.DraftCoverLetter(ctx, input)
	}

	err = common.RunAICommand(cmd.Context(), logger, coverConfig, args,
		alignmentInputFromFiles, coverOperation, logDetails)
	if err != nil {
		return fmt.Errorf("failed to draft cover letter: %w", err)
	}
	logger.Info("Cover letter draft completed successfully")
	return nil
}
