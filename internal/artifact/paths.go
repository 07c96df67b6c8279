// Package artifact derives the sibling file paths produced for one compiled
// executable.
package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extensions of the derived files.
const (
	ExtNativeExec = ".velf"
	ExtMeta       = ".sfo"
	ExtSignedExec = ".eboot-bin"
	ExtPackage    = ".vpk"
)

// Paths holds an executable and the four files derived from it.
//
// Derived paths replace the executable's final extension, so two executables
// that differ only by extension (game and game.elf in one directory) share
// derived paths. Cargo never emits both for one target.
type Paths struct {
	Executable string
	NativeExec string // converted executable
	Meta       string // param.sfo
	SignedExec string // eboot.bin
	Package    string // installable package
}

// PathsFor computes the derived paths of executable. It is a pure function.
func PathsFor(executable string) Paths {
	base := withoutExt(executable)
	return Paths{
		Executable: executable,
		NativeExec: base + ExtNativeExec,
		Meta:       base + ExtMeta,
		SignedExec: base + ExtSignedExec,
		Package:    base + ExtPackage,
	}
}

// All returns the five paths in a fixed order.
func (p Paths) All() []string {
	return []string{p.Executable, p.NativeExec, p.Meta, p.SignedExec, p.Package}
}

// Title returns the file stem of executable, used as the application title.
func Title(executable string) (string, error) {
	name := filepath.Base(executable)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("executable path %q has no file name", executable)
	}
	return stem(name), nil
}

func withoutExt(path string) string {
	dir, name := filepath.Split(path)
	return dir + stem(name)
}

// stem strips the final extension; a leading dot alone is not an extension.
func stem(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
