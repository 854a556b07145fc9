package render

import (
	"strings"
	"testing"
)

func TestAnalysisHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   \n\n  ",
			expected: "",
		},
		{
			name:     "plain paragraph",
			input:    "The resume aligns well with the role.",
			expected: "<p>The resume aligns well with the role.</p>",
		},
		{
			name:     "bold heading with paragraph",
			input:    "**Strengths**\nYou have good skills",
			expected: "<h3>Strengths</h3><p>You have good skills</p>",
		},
		{
			name:     "bullet list",
			input:    "* A\n* B",
			expected: "<ul><li>A</li><li>B</li></ul>",
		},
		{
			name:     "dash bullets",
			input:    "- First\n- Second",
			expected: "<ul><li>First</li><li>Second</li></ul>",
		},
		{
			name:     "numbered heading",
			input:    "1. Add cloud keywords",
			expected: "<h4>1. Add cloud keywords</h4>",
		},
		{
			name:     "heading then list in separate blocks",
			input:    "**Gaps**\n\n* Kubernetes\n* Terraform",
			expected: "<h3>Gaps</h3><ul><li>Kubernetes</li><li>Terraform</li></ul>",
		},
		{
			name:     "heading followed by list in same block",
			input:    "**Keyword Suggestions**\n* Docker\n* CI/CD",
			expected: "<h3>Keyword Suggestions</h3><ul><li>Docker</li><li>CI/CD</li></ul>",
		},
		{
			name:     "inline bold inside paragraph",
			input:    "Your **Go** experience stands out.",
			expected: "<p>Your <strong>Go</strong> experience stands out.</p>",
		},
		{
			name:     "html is escaped",
			input:    "Use <script>alert(1)</script> carefully",
			expected: "<p>Use &lt;script&gt;alert(1)&lt;/script&gt; carefully</p>",
		},
		{
			name:     "escaping inside list items",
			input:    "* a < b\n* c & d",
			expected: "<ul><li>a &lt; b</li><li>c &amp; d</li></ul>",
		},
		{
			name:     "multiline paragraph joined with spaces",
			input:    "First line\nsecond line",
			expected: "<p>First line second line</p>",
		},
		{
			name:     "windows line endings",
			input:    "**Summary**\r\n\r\nGood match.",
			expected: "<h3>Summary</h3><p>Good match.</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalysisHTML(tt.input)
			if got != tt.expected {
				t.Errorf("AnalysisHTML(%q)\n got: %s\nwant: %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAnalysisHTMLFullDocument(t *testing.T) {
	input := strings.Join([]string{
		"**Alignment Summary**",
		"Strong overall match for the role.",
		"",
		"**Strengths**",
		"",
		"* 5 years of Go",
		"* Distributed systems background",
		"",
		"**Gaps**",
		"",
		"* No Kubernetes experience listed",
	}, "\n")

	got := AnalysisHTML(input)

	for _, want := range []string{
		"<h3>Alignment Summary</h3>",
		"<p>Strong overall match for the role.</p>",
		"<h3>Strengths</h3>",
		"<li>5 years of Go</li>",
		"<li>Distributed systems background</li>",
		"<h3>Gaps</h3>",
		"<li>No Kubernetes experience listed</li>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %s, got:\n%s", want, got)
		}
	}
}

func BenchmarkAnalysisHTML(b *testing.B) {
	input := "**Strengths**\n\n* Go\n* Python\n* SQL\n\n**Gaps**\n\nSome gaps here."
	for b.Loop() {
		AnalysisHTML(input)
	}
}
