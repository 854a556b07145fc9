package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	formats := []string{"json", "text", "markdown"}

	t.Run("accepts every configured format", func(t *testing.T) {
		for _, f := range formats {
			assert.NoError(t, ValidateOutputFormat(f, formats))
		}
	})

	t.Run("rejects unknown formats with a listing", func(t *testing.T) {
		for _, f := range []string{"xml", "yaml"} {
			err := ValidateOutputFormat(f, formats)
			require.Error(t, err)
			assert.Equal(t, "unsupported output format '"+f+"'. Supported formats: [json text markdown]", err.Error())
		}
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		assert.Error(t, ValidateOutputFormat("JSON", formats))
	})

	t.Run("flag values are not trimmed", func(t *testing.T) {
		err := ValidateOutputFormat(" json", formats)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "' json'")
	})

	t.Run("empty format string is rejected", func(t *testing.T) {
		assert.Error(t, ValidateOutputFormat("", formats))
	})

	t.Run("empty configuration allows anything", func(t *testing.T) {
		assert.NoError(t, ValidateOutputFormat("xml", nil))
		assert.NoError(t, ValidateOutputFormat("xml", []string{}))
	})

	t.Run("single configured format", func(t *testing.T) {
		assert.NoError(t, ValidateOutputFormat("json", []string{"json"}))
		err := ValidateOutputFormat("text", []string{"json"})
		require.Error(t, err)
		assert.Equal(t, "unsupported output format 'text'. Supported formats: [json]", err.Error())
	})
}

func TestGetSupportedFormats(t *testing.T) {
	for _, formats := range [][]string{
		{"json", "text", "markdown"},
		{"json"},
		{},
		{"xml", "yaml", "csv"},
	} {
		assert.Equal(t, formats, GetSupportedFormats(formats))
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	formats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", formats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", formats)
		}
	})
}
