package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pdfWord positions one text-showing operation on a test page.
type pdfWord struct {
	x, y int
	s    string
}

// wordRow lays out words left to right on one baseline.
func wordRow(y int, words ...string) []pdfWord {
	row := make([]pdfWord, len(words))
	for i, w := range words {
		row[i] = pdfWord{x: 72 + 100*i, y: y, s: w}
	}
	return row
}

// buildTestPDF assembles a minimal uncompressed PDF where every word is
// its own text-showing operation. Offsets in the xref table are computed
// while writing so standard readers can parse the result.
func buildTestPDF(t *testing.T, pages [][]pdfWord) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make(map[int]int)

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	numPages := len(pages)
	fontNum := 3 + 2*numPages

	kids := make([]string, numPages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), numPages))

	for i, words := range pages {
		pageNum := 3 + 2*i
		contentNum := pageNum + 1

		var stream strings.Builder
		for _, word := range words {
			fmt.Fprintf(&stream, "BT /F1 12 Tf %d %d Td (%s) Tj ET\n", word.x, word.y, word.s)
		}

		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			contentNum, fontNum))
		writeObj(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", stream.Len(), stream.String()))
	}

	writeObj(fontNum, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	objCount := fontNum + 1
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < objCount; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount, xrefStart)

	return buf.Bytes()
}

// buildTestDOCX assembles a minimal OOXML package in memory
func buildTestDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	files["word/document.xml"] = body.String()

	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to finalize zip: %v", err)
	}

	return buf.Bytes()
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected bool
	}{
		{"plain text", "resume.txt", true},
		{"markdown", "resume.md", true},
		{"pdf", "resume.pdf", true},
		{"docx", "resume.docx", true},
		{"uppercase extension", "RESUME.PDF", true},
		{"legacy doc", "resume.doc", false},
		{"image", "resume.png", false},
		{"no extension", "resume", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSupported(tt.fileName); got != tt.expected {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.fileName, got, tt.expected)
			}
		})
	}
}

func TestFromBytesPlainText(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     string
	}{
		{"txt passthrough", "resume.txt", "Jane Doe\nSoftware Engineer"},
		{"md passthrough", "resume.md", "# Jane Doe\n\n* Go\n* Python"},
		{"empty file", "empty.txt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := FromBytes([]byte(tt.data), tt.fileName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.Text != tt.data {
				t.Errorf("expected text %q, got %q", tt.data, doc.Text)
			}
			if doc.FileName != tt.fileName {
				t.Errorf("expected file name %q, got %q", tt.fileName, doc.FileName)
			}
		})
	}
}

func TestFromBytesUnsupportedType(t *testing.T) {
	_, err := FromBytes([]byte("data"), "resume.png")
	if err == nil {
		t.Fatal("expected error for unsupported file type")
	}
	if !strings.Contains(err.Error(), "UNSUPPORTED_FILE_TYPE") {
		t.Errorf("expected UNSUPPORTED_FILE_TYPE error, got: %v", err)
	}
}

func TestFromBytesPDF(t *testing.T) {
	data := buildTestPDF(t, [][]pdfWord{
		wordRow(720, "Hello", "World"),
		wordRow(720, "Foo", "Bar"),
	})

	doc, err := FromBytes(data, "resume.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "Hello World\nFoo Bar\n"
	if doc.Text != expected {
		t.Errorf("expected %q, got %q", expected, doc.Text)
	}
}

func TestFromBytesPDFWordsStayIntact(t *testing.T) {
	data := buildTestPDF(t, [][]pdfWord{
		wordRow(720, "Experienced", "Software", "Engineer"),
	})

	doc, err := FromBytes(data, "resume.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "Experienced Software Engineer\n"
	if doc.Text != expected {
		t.Errorf("expected %q, got %q", expected, doc.Text)
	}
}

func TestFromBytesPDFBaselineBreaks(t *testing.T) {
	page := append(wordRow(720, "Jane", "Doe"), wordRow(700, "Go", "Developer")...)
	data := buildTestPDF(t, [][]pdfWord{page})

	doc, err := FromBytes(data, "resume.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "Jane Doe\nGo Developer\n"
	if doc.Text != expected {
		t.Errorf("expected %q, got %q", expected, doc.Text)
	}
}

func TestFromBytesPDFMalformed(t *testing.T) {
	_, err := FromBytes([]byte("%PDF-1.4 not really a pdf"), "broken.pdf")
	if err == nil {
		t.Fatal("expected error for malformed PDF")
	}
	if !strings.Contains(err.Error(), "EXTRACTION_FAILED") {
		t.Errorf("expected EXTRACTION_FAILED error, got: %v", err)
	}
}

func TestFromBytesDOCX(t *testing.T) {
	data := buildTestDOCX(t, []string{"Jane Doe", "Software Engineer"})

	doc, err := FromBytes(data, "resume.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(doc.Text, "Jane Doe") {
		t.Errorf("expected extracted text to contain 'Jane Doe', got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Software Engineer") {
		t.Errorf("expected extracted text to contain 'Software Engineer', got %q", doc.Text)
	}

	// Paragraph boundaries become newlines
	if !strings.Contains(doc.Text, "Jane Doe\n") {
		t.Errorf("expected newline after first paragraph, got %q", doc.Text)
	}
}

func TestFromBytesDOCXMalformed(t *testing.T) {
	_, err := FromBytes([]byte("not a zip archive"), "broken.docx")
	if err == nil {
		t.Fatal("expected error for malformed DOCX")
	}
	if !strings.Contains(err.Error(), "EXTRACTION_FAILED") {
		t.Errorf("expected EXTRACTION_FAILED error, got: %v", err)
	}
}

func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "resume.txt")
	content := "Jane Doe\nGo developer with 5 years of experience"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	doc, err := FromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != content {
		t.Errorf("expected %q, got %q", content, doc.Text)
	}
	if doc.FileName != "resume.txt" {
		t.Errorf("expected file name resume.txt, got %q", doc.FileName)
	}
}

func TestFromFileNotFound(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "FILE_NOT_FOUND") {
		t.Errorf("expected FILE_NOT_FOUND error, got: %v", err)
	}
}

func TestStripDocumentXML(t *testing.T) {
	raw := `<w:document><w:body><w:p><w:r><w:t>First</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t></w:r></w:p></w:body></w:document>`
	got := stripDocumentXML(raw)
	expected := "First\nSecond"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
