package common

import (
	"context"
	"fmt"
	"os"

	"jobalign/internal/ai"
	"jobalign/internal/errors"
	"jobalign/internal/formatters"
)

// CommandConfig carries the output options shared by every CLI command.
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// RunAICommand drives a file-based AI command end to end: read the input
// files, build the operation input, invoke the AI operation, report token
// usage and hand the result to the output pipeline.
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput func(contents []string) (Input, error),
	aiOperation func(context.Context, Input) (Output, *ai.TokenUsage, error),
	logDetails func(input Input, cfg CommandConfig),
) error {
	contents, err := NewFileProcessor(logger).ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}
	logDetails(input, cmdConfig)

	result, usage, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}
	reportTokenUsage(logger, usage)

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}

func reportTokenUsage(logger *errors.Logger, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	if logger != nil {
		logger.Info("AI token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
		return
	}
	fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
}

// OutputHandler formats command results and writes them to stdout or a file.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
}

func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
	}
}

// HandleOutput renders data in the configured format and writes it to the
// configured destination. An empty OutputFile means stdout.
func (oh *OutputHandler) HandleOutput(data any, cfg CommandConfig) error {
	if err := oh.files.ValidateOutputFile(cfg.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		fmt.Print(output)
		return nil
	}
	if err := oh.files.WriteFile(cfg.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", cfg.OutputFile, "format", cfg.OutputFormat)
	return nil
}

// GetSupportedFormats lists the formats the registry can render.
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
