package cli

import (
	"context"

	"jobalign/internal/config"
	"jobalign/internal/errors"

	"github.com/spf13/cobra"
)

// Unexported context key types keep our values from colliding with other
// packages' context entries.
type (
	configKeyType struct{}
	loggerKeyType struct{}
)

var (
	configKey = configKeyType{}
	loggerKey = loggerKeyType{}
)

var rootCmd = &cobra.Command{
	Use:   "jobalign",
	Short: "A CLI tool for aligning resumes with job descriptions using AI",
	Long: `JobAlign is a command-line tool that analyzes how well a resume lines up
with a job description using AI. It can also draft a tailored cover letter
and rewrite the resume for applicant tracking systems.`,
}

// Execute runs the CLI with the config and logger attached to the command
// context, where every subcommand retrieves them.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// The context accessors panic rather than return nil: a missing value means
// Execute was bypassed, which is a programming error.

func getConfigFromContext(ctx context.Context) *config.Config {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		panic("config not found in context")
	}
	return cfg
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	logger, ok := ctx.Value(loggerKey).(*errors.Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

func init() {
	rootCmd.AddCommand(analyzeCmd, coverCmd, refineCmd, extractCmd, versionCmd, serveCmd)
}
