package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultWithoutFile(t *testing.T) {
	l := NewLoader()
	got := l.Load()
	if !strings.Contains(got, "Life Rank Scoring System") {
		t.Errorf("default document missing scoring section")
	}
	if !strings.Contains(got, "Coaching Tips") {
		t.Errorf("default document missing coaching tips section")
	}
}

func TestLoadFallsBackOnMissingFile(t *testing.T) {
	l := NewLoader(WithFilePath("/nonexistent/knowledge.txt"))
	if got := l.Load(); got != Default() {
		t.Errorf("expected built-in document when file is missing")
	}
}

func TestLoadFallsBackOnEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	l := NewLoader(WithFilePath(path))
	if got := l.Load(); got != Default() {
		t.Errorf("expected built-in document when file is empty")
	}
}

func TestLoadReadsOverrideFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.txt")
	if err := os.WriteFile(path, []byte("custom coaching doc"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	l := NewLoader(WithFilePath(path))
	if got := l.Load(); got != "custom coaching doc" {
		t.Errorf("Load() = %q, want override content", got)
	}

	// Content is cached: rewriting the file does not change the result.
	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if got := l.Load(); got != "custom coaching doc" {
		t.Errorf("Load() after rewrite = %q, want cached content", got)
	}
}
