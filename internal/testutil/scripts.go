// Package testutil holds helpers shared by tests that run stub processes and
// inspect the files they leave behind.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// WriteLastArg is a script body that writes the name of the script into the
// file named by its last argument, like every packaging tool does with its
// output.
const WriteLastArg = `for last in "$@"; do :; done
echo "$0" > "$last"`

// RequireShell skips t on platforms without a POSIX shell.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a POSIX shell")
	}
}

// WriteScript writes an executable /bin/sh script with body to path,
// creating parent directories.
func WriteScript(t *testing.T, path, body string) string {
	t.Helper()
	RequireShell(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create script dir: %v", err)
	}
	// #nosec G306 -- test stubs must be executable
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
	return path
}

// SetMtime sets both access and modification time of path.
func SetMtime(t *testing.T, path string, at time.Time) {
	t.Helper()
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
