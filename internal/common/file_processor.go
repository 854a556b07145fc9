package common

import (
	"fmt"
	"os"
	"path/filepath"

	"jobalign/internal/errors"
	"jobalign/internal/extract"
	"jobalign/internal/utils"
)

// FileProcessor handles file operations for commands
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads a file and returns its raw contents as a string
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fp.logger.Warn("Failed to close file", "file", filename, "error", closeErr)
		}
	}()

	content, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file contents: %s", filename), err)
	}

	return string(content), nil
}

// ReadDocument reads a file and extracts its plain text. PDF and DOCX
// inputs are decoded by the extraction layer; everything else is read
// verbatim.
func (fp *FileProcessor) ReadDocument(filename string) (string, error) {
	ext := utils.GetFileExtension(filename)
	if ext == extract.ExtPDF || ext == extract.ExtDOCX {
		doc, err := extract.FromFile(filename)
		if err != nil {
			return "", err
		}
		fp.logger.Debug("Extracted document text",
			"file", filename, "type", ext, "length", len(doc.Text))
		return doc.Text, nil
	}
	return fp.ReadFile(filename)
}

// WriteFile writes content to a file, creating directories as needed
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError(errors.ErrCodeDirectoryCreateFailed,
				fmt.Sprintf("Failed to create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError(errors.ErrCodeFileWriteFailed,
			fmt.Sprintf("Failed to write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates each input file and returns its text
// content, with document extraction applied by extension
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, 0, len(filenames))

	for _, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Invalid input file: %s", filename), err)
		}

		if !utils.IsTextFile(filename) && !extract.IsSupported(filename) {
			fp.logger.Warn("File does not have a recognized document extension",
				"file", filename)
		}

		content, err := fp.ReadDocument(filename)
		if err != nil {
			return nil, err
		}

		contents = append(contents, content)
	}

	return contents, nil
}

// ValidateOutputFile checks that an output path is usable before any AI work runs
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
