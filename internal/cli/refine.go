package cli

import (
	"context"
	"fmt"

	"jobalign/internal/ai"
	"jobalign/internal/common"
	"jobalign/internal/types"

	"github.com/spf13/cobra"
)

var refineCmd = &cobra.Command{
	Use:   "refine [resume-file] [job-description-file]",
	Short: "Rewrite a resume so it passes applicant tracking systems",
	Long: `Rewrite your resume for a specific job description using AI, optimizing
keyword coverage and formatting for applicant tracking systems without
inventing experience. The command takes two arguments: the path to your
resume file and the path to the job description file.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputFormatPreRun(&refineConfig),
	RunE:    runRefine,
}

var refineConfig common.CommandConfig

func init() {
	registerOutputFlags(refineCmd, &refineConfig)
}

func runRefine(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for the refine operation
	refineAIConfig := cfg.GetRefineConfig()
	aiService, err := ai.NewService(&refineAIConfig, "refine", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	logDetails := func(input types.AlignmentInput, cfg common.CommandConfig) {
		logger.Info("Starting resume refinement",
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	refineOperation := func(ctx context.Context, input types.AlignmentInput) (types.RefineOutput, *ai.TokenUsage, error) {
		return aiService.Provider.RefineResume(ctx, input)
	}

	err = common.RunAICommand(cmd.Context(), logger, refineConfig, args,
		alignmentInputFromFiles, refineOperation, logDetails)
	if err != nil {
		return fmt.Errorf("failed to refine resume: %w", err)
	}
	logger.Info("Resume refinement completed successfully")
	return nil
}
