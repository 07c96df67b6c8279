// Package toolchain locates the vitasdk packaging tools and runs them.
//
// The Toolchain value is resolved once at process start from the installation
// root and then shared read-only by every pipeline.
package toolchain

import (
	"fmt"
	"os"
	"path/filepath"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
)

// Tool identifies one external packaging tool.
type Tool int

const (
	ToolElfCreate Tool = iota // ELF -> VELF converter
	ToolMksfoex               // param.sfo generator
	ToolMakeFself             // signer/compressor
	ToolPackVpk               // package packer
)

// Tools lists every tool in a fixed order.
var Tools = []Tool{ToolElfCreate, ToolMksfoex, ToolMakeFself, ToolPackVpk}

// String returns the executable name of the tool.
func (t Tool) String() string {
	switch t {
	case ToolElfCreate:
		return "vita-elf-create"
	case ToolMksfoex:
		return "vita-mksfoex"
	case ToolMakeFself:
		return "vita-make-fself"
	case ToolPackVpk:
		return "vita-pack-vpk"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// Toolchain holds the resolved installation root and tool locations.
type Toolchain struct {
	root  string
	paths map[Tool]string
}

// New validates root and resolves every tool under root/bin.
func New(root string) (*Toolchain, error) {
	if root == "" {
		return nil, vserrors.ToolchainRootMissing("VITASDK")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, vserrors.ToolchainRootInvalid(root, err)
	}
	if !info.IsDir() {
		return nil, vserrors.ToolchainRootInvalid(root, fmt.Errorf("%s is not a directory", root))
	}

	tc := &Toolchain{root: root, paths: make(map[Tool]string, len(Tools))}
	for _, t := range Tools {
		tc.paths[t] = filepath.Join(root, "bin", t.String())
	}
	return tc, nil
}

// Root returns the installation root.
func (tc *Toolchain) Root() string { return tc.root }

// Path returns the executable location of t.
func (tc *Toolchain) Path(t Tool) string { return tc.paths[t] }
