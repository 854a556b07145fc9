package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	appErrors "jobalign/internal/errors"
	"jobalign/internal/types"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported file extensions for document extraction
const (
	ExtText     = ".txt"
	ExtMarkdown = ".md"
	ExtPDF      = ".pdf"
	ExtDOCX     = ".docx"
)

// SupportedExtensions lists the file types the extractor accepts
var SupportedExtensions = []string{ExtText, ExtMarkdown, ExtPDF, ExtDOCX}

// IsSupported reports whether the file name carries an extractable extension
func IsSupported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// FromFile reads a document from disk and extracts its plain text
func FromFile(path string) (types.ExtractedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ExtractedDocument{}, appErrors.NewIOError(appErrors.ErrCodeFileNotFound,
				"File not found: "+path, err)
		}
		return types.ExtractedDocument{}, appErrors.NewIOError(appErrors.ErrCodeFileNotReadable,
			"Failed to read file: "+path, err)
	}

	return FromBytes(data, filepath.Base(path))
}

// FromBytes extracts plain text from an in-memory document. The file
// name determines the format: .txt and .md pass through unchanged,
// .pdf and .docx are parsed.
func FromBytes(data []byte, fileName string) (types.ExtractedDocument, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var text string
	var err error

	switch ext {
	case ExtText, ExtMarkdown:
		text = string(data)
	case ExtPDF:
		text, err = extractPDF(data)
	case ExtDOCX:
		text, err = extractDOCX(data)
	default:
		return types.ExtractedDocument{}, appErrors.NewValidationError(appErrors.ErrCodeUnsupportedFile,
			"Unsupported file type: "+ext+" (supported: "+strings.Join(SupportedExtensions, ", ")+")", nil).
			WithContext("file_name", fileName)
	}

	if err != nil {
		return types.ExtractedDocument{}, err
	}

	return types.ExtractedDocument{
		FileName: fileName,
		Text:     text,
	}, nil
}

// wordGapRatio is the horizontal gap, as a fraction of the font size,
// beyond which two glyph runs belong to separate words.
const wordGapRatio = 0.3

// extractPDF pulls text out of a PDF document. The reader reports one
// entry per glyph, so glyphs are regrouped by position: runs on the
// same baseline separated by a word-sized gap are joined with a single
// space, baseline changes become newlines, and each page contributes a
// trailing newline. A two page document with "Hello" "World" on the
// first page and "Foo" "Bar" on the second yields
// "Hello World\nFoo Bar\n".
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", appErrors.NewIOError(appErrors.ErrCodeExtractionFailed,
			"Failed to parse PDF document", err)
	}

	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		var prev *pdf.Text
		glyphs := page.Content().Text
		for j := range glyphs {
			g := &glyphs[j]
			if prev != nil {
				switch {
				case math.Abs(g.Y-prev.Y) > 0.1:
					builder.WriteString("\n")
				case g.X-(prev.X+prev.W) > wordGapRatio*prev.FontSize:
					builder.WriteString(" ")
				}
			}
			builder.WriteString(g.S)
			prev = g
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// extractDOCX pulls text out of a DOCX document using the OOXML main
// document part. Paragraph and line break boundaries become newlines.
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", appErrors.NewIOError(appErrors.ErrCodeExtractionFailed,
			"Failed to parse DOCX document", err)
	}
	defer doc.Close()

	return stripDocumentXML(doc.Editable().GetContent()), nil
}

// stripDocumentXML reduces the word/document.xml markup to plain text
func stripDocumentXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
