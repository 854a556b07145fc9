package common

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobalign/internal/errors"
)

func newTestLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func TestReadDocumentPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("plain resume text"), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	fp := NewFileProcessor(newTestLogger())
	content, err := fp.ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument returned error: %v", err)
	}
	if content != "plain resume text" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	fp := NewFileProcessor(newTestLogger())
	_, err := fp.ReadDocument(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "FILE_NOT_FOUND") {
		t.Errorf("expected FILE_NOT_FOUND in error, got %v", err)
	}
}

func TestValidateAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.md")
	job := filepath.Join(dir, "job.txt")
	if err := os.WriteFile(resume, []byte("# Resume"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(job, []byte("Job description"), 0600); err != nil {
		t.Fatal(err)
	}

	fp := NewFileProcessor(newTestLogger())
	contents, err := fp.ValidateAndReadFiles(resume, job)
	if err != nil {
		t.Fatalf("ValidateAndReadFiles returned error: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0] != "# Resume" || contents[1] != "Job description" {
		t.Errorf("unexpected contents: %v", contents)
	}
}

func TestValidateAndReadFilesInvalidInput(t *testing.T) {
	fp := NewFileProcessor(newTestLogger())
	_, err := fp.ValidateAndReadFiles("")
	if err == nil {
		t.Fatal("expected error for empty filename")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("expected INVALID_REQUEST in error, got %v", err)
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "result.txt")

	fp := NewFileProcessor(newTestLogger())
	if err := fp.WriteFile(path, "output"); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("written file not readable: %v", err)
	}
	if string(data) != "output" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestValidateOutputFileStdout(t *testing.T) {
	fp := NewFileProcessor(newTestLogger())
	if err := fp.ValidateOutputFile(""); err != nil {
		t.Errorf("empty output file should be valid (stdout), got %v", err)
	}
}
