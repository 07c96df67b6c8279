package testutil

import (
	"os"
	"strings"
	"testing"
	"time"
)

// FileAssertions provides utilities for asserting file system state in tests.
type FileAssertions struct {
	t *testing.T
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t *testing.T) *FileAssertions {
	return &FileAssertions{t: t}
}

// AssertFileExists validates that a regular file exists at path.
func (fa *FileAssertions) AssertFileExists(path string) *FileAssertions {
	fa.t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fa.t.Errorf("Expected file to exist: %s (%v)", path, err)
	case info.IsDir():
		fa.t.Errorf("Expected %s to be a file, but it's a directory", path)
	}
	return fa
}

// AssertFileNotExists validates that nothing exists at path.
func (fa *FileAssertions) AssertFileNotExists(path string) *FileAssertions {
	fa.t.Helper()
	if _, err := os.Stat(path); err == nil {
		fa.t.Errorf("Expected file to not exist: %s", path)
	}
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(path, expectedContent string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(path)
	if err != nil {
		fa.t.Errorf("Failed to read file %s: %v", path, err)
		return fa
	}
	if !strings.Contains(string(content), expectedContent) {
		fa.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", path, expectedContent, string(content))
	}
	return fa
}

// AssertModifiedAt validates the modification time of path.
func (fa *FileAssertions) AssertModifiedAt(path string, want time.Time) *FileAssertions {
	fa.t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		fa.t.Errorf("Failed to stat %s: %v", path, err)
		return fa
	}
	if !info.ModTime().Equal(want) {
		fa.t.Errorf("Expected %s to be modified at %s, got %s", path, want, info.ModTime())
	}
	return fa
}
