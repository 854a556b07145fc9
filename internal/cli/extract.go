package cli

import (
	"fmt"

	"jobalign/internal/common"
	"jobalign/internal/extract"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract plain text from a PDF, DOCX, or text file",
	Long: `Extract the plain text content of a document without calling the AI.
Supported formats are plain text, Markdown, PDF, and DOCX. DOCX extraction
strips markup and preserves paragraph breaks.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputFormatPreRun(&extractConfig),
	RunE:    runExtract,
}

var extractConfig common.CommandConfig

func init() {
	registerOutputFlags(extractCmd, &extractConfig)
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	logger.Info("Extracting document text", "file", args[0])

	doc, err := extract.FromFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	logger.Info("Document text extracted",
		"file", doc.FileName,
		"text_chars", len(doc.Text))

	return common.NewOutputHandler(logger).HandleOutput(doc, extractConfig)
}
