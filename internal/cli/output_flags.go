package cli

import (
	"fmt"
	"strings"

	"jobalign/internal/common"
	"jobalign/internal/errors"
	"jobalign/internal/types"

	"github.com/spf13/cobra"
)

// registerOutputFlags wires the shared --output and --format flags plus shell
// completion for the format values.
func registerOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// outputFormatPreRun defaults the output format from config and validates it.
func outputFormatPreRun(cc *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if cc.OutputFormat == "" {
			cc.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
	}
}

// alignmentInputFromFiles pairs the resume and job description contents read
// from the two positional arguments. Blank documents are rejected here so
// we never spend an AI call on them.
func alignmentInputFromFiles(contents []string) (types.AlignmentInput, error) {
	if len(contents) != 2 {
		return types.AlignmentInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
	}
	if strings.TrimSpace(contents[0]) == "" {
		return types.AlignmentInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Resume file is empty", nil)
	}
	if strings.TrimSpace(contents[1]) == "" {
		return types.AlignmentInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job description file is empty", nil)
	}
	return types.AlignmentInput{Resume: contents[0], JobDescription: contents[1]}, nil
}
