package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat validates the requested format against the
// formats configured under app.supportedFormats. An empty list means no
// restrictions.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the configured formats for shell completion
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
