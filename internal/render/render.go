// Package render converts the lightly formatted text produced by the
// analysis operation into safe HTML for the web UI.
package render

import (
	"html"
	"regexp"
	"strings"
)

var (
	blankLineSplit = regexp.MustCompile(`\n\s*\n`)
	numberedLead   = regexp.MustCompile(`^\d+\.\s`)
	boldSpan       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// AnalysisHTML renders analysis text into HTML. The input is split on
// blank lines into blocks; a block whose first line is a **bold**
// heading becomes an <h3> followed by a paragraph, lines starting with
// "* " or "- " become list items, a leading "1. " style line renders
// as a numbered heading, and everything else is a plain paragraph.
// All text content is HTML-escaped before markup is added.
func AnalysisHTML(text string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if trimmed == "" {
		return ""
	}

	var out strings.Builder
	for _, block := range blankLineSplit.Split(trimmed, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		renderBlock(&out, block)
	}

	return out.String()
}

func renderBlock(out *strings.Builder, block string) {
	lines := strings.Split(block, "\n")
	first := strings.TrimSpace(lines[0])

	switch {
	case isBoldHeading(first):
		out.WriteString("<h3>")
		out.WriteString(html.EscapeString(strings.TrimSuffix(strings.TrimPrefix(first, "**"), "**")))
		out.WriteString("</h3>")
		if len(lines) > 1 {
			renderBlock(out, strings.TrimSpace(strings.Join(lines[1:], "\n")))
		}
	case isBulletList(lines):
		out.WriteString("<ul>")
		for _, line := range lines {
			item := strings.TrimSpace(line)
			item = strings.TrimPrefix(strings.TrimPrefix(item, "* "), "- ")
			out.WriteString("<li>")
			out.WriteString(inline(item))
			out.WriteString("</li>")
		}
		out.WriteString("</ul>")
	case numberedLead.MatchString(first):
		out.WriteString("<h4>")
		out.WriteString(inline(strings.Join(lines, " ")))
		out.WriteString("</h4>")
	default:
		out.WriteString("<p>")
		out.WriteString(inline(strings.Join(lines, " ")))
		out.WriteString("</p>")
	}
}

// isBoldHeading reports whether a line is entirely a **bold** span
func isBoldHeading(line string) bool {
	return strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") &&
		len(line) > 4 && !strings.Contains(line[2:len(line)-2], "**")
}

// isBulletList reports whether every line of the block is a bullet
func isBulletList(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "* ") && !strings.HasPrefix(trimmed, "- ") {
			return false
		}
	}
	return len(lines) > 0
}

// inline escapes a text run and converts **spans** to <strong>
func inline(text string) string {
	escaped := html.EscapeString(text)
	return boldSpan.ReplaceAllString(escaped, "<strong>$1</strong>")
}
