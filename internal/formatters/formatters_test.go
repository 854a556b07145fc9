package formatters

import (
	"strings"
	"testing"

	"jobalign/internal/types"
)

func TestFormatterRegistry(t *testing.T) {
	registry := NewFormatterRegistry()

	tests := []struct {
		name        string
		data        any
		format      string
		contains    []string
		expectError bool
	}{
		{
			name:     "analyze text",
			data:     types.AnalyzeOutput{Analysis: "Strong alignment overall."},
			format:   "text",
			contains: []string{"=== ALIGNMENT ANALYSIS ===", "Strong alignment overall."},
		},
		{
			name:     "analyze markdown",
			data:     types.AnalyzeOutput{Analysis: "Strong alignment overall."},
			format:   "markdown",
			contains: []string{"# Alignment Analysis", "Strong alignment overall."},
		},
		{
			name:     "cover letter text",
			data:     types.CoverLetterOutput{CoverLetter: "Dear Hiring Manager,"},
			format:   "text",
			contains: []string{"=== COVER LETTER ===", "Dear Hiring Manager,"},
		},
		{
			name:     "refine markdown",
			data:     types.RefineOutput{RefinedResume: "Jane Doe\nEngineer"},
			format:   "markdown",
			contains: []string{"# Refined Resume", "Jane Doe"},
		},
		{
			name:     "extracted document text is raw",
			data:     types.ExtractedDocument{FileName: "resume.pdf", Text: "Hello World\n"},
			format:   "text",
			contains: []string{"Hello World"},
		},
		{
			name:     "json fallback for any type",
			data:     types.AnalyzeOutput{Analysis: "match"},
			format:   "json",
			contains: []string{`"analysis": "match"`},
		},
		{
			name:        "unknown format",
			data:        types.AnalyzeOutput{Analysis: "x"},
			format:      "yaml",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Format(tt.data, tt.format)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	registry := NewFormatterRegistry()
	formats := registry.GetSupportedFormats()

	want := map[string]bool{"json": false, "text": false, "markdown": false}
	for _, f := range formats {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for format, seen := range want {
		if !seen {
			t.Errorf("expected format %s to be supported", format)
		}
	}
}

func TestTypedFormatterRejectsWrongType(t *testing.T) {
	formatter := typedFormatter[types.AnalyzeOutput]{"AnalyzeOutput", func(o types.AnalyzeOutput) string {
		return o.Analysis
	}}
	_, err := formatter.Format(types.RefineOutput{})
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	if !strings.Contains(err.Error(), "expected AnalyzeOutput") {
		t.Errorf("unexpected error message: %v", err)
	}
}
