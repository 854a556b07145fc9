// Package formatters renders result types into the supported output
// formats: json, text and markdown.
package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobalign/internal/types"
)

// Formatter renders a result value into a string representation.
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry maps format name and data type to a formatter.
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter
}

// GlobalRegistry is the shared registry used by the output pipeline.
var GlobalRegistry = NewFormatterRegistry()

// typedFormatter adapts a strongly typed render function to the
// Formatter interface.
type typedFormatter[T any] struct {
	dataType string
	render   func(T) string
}

func (f typedFormatter[T]) Format(data any) (string, error) {
	v, ok := data.(T)
	if !ok {
		return "", fmt.Errorf("expected %s, got %T", f.dataType, data)
	}
	return f.render(v), nil
}

func (f typedFormatter[T]) SupportedType() string { return f.dataType }

// jsonFormatter marshals any value with indentation.
type jsonFormatter struct{}

func (jsonFormatter) Format(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (jsonFormatter) SupportedType() string { return "any" }

func section(heading, content string) string {
	return heading + "\n\n" + strings.TrimSpace(content) + "\n"
}

// NewFormatterRegistry builds a registry with the default formatters for
// every result type.
func NewFormatterRegistry() *FormatterRegistry {
	r := &FormatterRegistry{formatters: make(map[string]map[string]Formatter)}

	r.RegisterFormatter("json", "any", jsonFormatter{})

	analyze := func(heading string) Formatter {
		return typedFormatter[types.AnalyzeOutput]{"AnalyzeOutput", func(o types.AnalyzeOutput) string {
			return section(heading, o.Analysis)
		}}
	}
	r.RegisterFormatter("text", "AnalyzeOutput", analyze("=== ALIGNMENT ANALYSIS ==="))
	r.RegisterFormatter("markdown", "AnalyzeOutput", analyze("# Alignment Analysis"))

	cover := func(heading string) Formatter {
		return typedFormatter[types.CoverLetterOutput]{"CoverLetterOutput", func(o types.CoverLetterOutput) string {
			return section(heading, o.CoverLetter)
		}}
	}
	r.RegisterFormatter("text", "CoverLetterOutput", cover("=== COVER LETTER ==="))
	r.RegisterFormatter("markdown", "CoverLetterOutput", cover("# Cover Letter"))

	refine := func(heading string) Formatter {
		return typedFormatter[types.RefineOutput]{"RefineOutput", func(o types.RefineOutput) string {
			return section(heading, o.RefinedResume)
		}}
	}
	r.RegisterFormatter("text", "RefineOutput", refine("=== REFINED RESUME ==="))
	r.RegisterFormatter("markdown", "RefineOutput", refine("# Refined Resume"))

	// Extracted text stays raw in text mode so it can be piped onward.
	r.RegisterFormatter("text", "ExtractedDocument", typedFormatter[types.ExtractedDocument]{"ExtractedDocument", func(d types.ExtractedDocument) string {
		return d.Text
	}})
	r.RegisterFormatter("markdown", "ExtractedDocument", typedFormatter[types.ExtractedDocument]{"ExtractedDocument", func(d types.ExtractedDocument) string {
		return "# " + d.FileName + "\n\n```\n" + strings.TrimSpace(d.Text) + "\n```\n"
	}})

	return r
}

// RegisterFormatter adds a formatter for the given format and data type,
// replacing any previous registration.
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format renders data in the requested format. When no formatter is
// registered for the concrete type, the format's "any" formatter is used.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if byType, exists := fr.formatters[format]; exists {
		if formatter, exists := byType[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := byType["any"]; exists {
			return formatter.Format(data)
		}
	}
	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats lists every registered format name.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalyzeOutput:
		return "AnalyzeOutput"
	case types.CoverLetterOutput:
		return "CoverLetterOutput"
	case types.RefineOutput:
		return "RefineOutput"
	case types.ExtractedDocument:
		return "ExtractedDocument"
	default:
		return "any"
	}
}
