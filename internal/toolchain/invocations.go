package toolchain

import (
	"fmt"
	"strconv"
	"strings"
)

// AuthID is the permission identity embedded by vita-make-fself.
type AuthID uint64

// Known authid presets.
const (
	AuthIDDefault    AuthID = 0x2F00000000000001
	AuthIDSafe       AuthID = 0x2F00000000000002
	AuthIDSecretSafe AuthID = 0x2F00000000000003
)

// ParseAuthID accepts a preset name (default, safe, secret_safe) or a numeric
// literal in any base strconv understands (0x..., decimal).
func ParseAuthID(s string) (AuthID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return AuthIDDefault, nil
	case "safe":
		return AuthIDSafe, nil
	case "secret_safe", "secret-safe":
		return AuthIDSecretSafe, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown authid %q: want default, safe, secret_safe or a number", s)
	}
	return AuthID(v), nil
}

// Pair is a name=value argument.
type Pair[T any] struct {
	Name  string
	Value T
}

// Asset is a file or directory added to a package at Dst.
type Asset struct {
	Src string
	Dst string
}

// ElfCreate converts an ARM ET_EXEC ELF into an ET_SCE_RELEXEC VELF.
type ElfCreate struct {
	Verbosity         int // 0-3
	AllowEmptyImports bool
	ConfigFile        string // YAML exports/imports config
	Input             string
	Output            string
}

// Args returns the tool's argument list.
func (e ElfCreate) Args() []string {
	var args []string
	if e.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", min(e.Verbosity, 3)))
	}
	if e.AllowEmptyImports {
		args = append(args, "-n")
	}
	if e.ConfigFile != "" {
		args = append(args, "-e", e.ConfigFile)
	}
	return append(args, e.Input, e.Output)
}

// Mksfoex generates a param.sfo.
type Mksfoex struct {
	Dwords  []Pair[uint32]
	Strings []Pair[string]
	Title   string
	Output  string
}

// Args returns the tool's argument list.
func (m Mksfoex) Args() []string {
	var args []string
	for _, d := range m.Dwords {
		args = append(args, "-d", fmt.Sprintf("%s=%d", d.Name, d.Value))
	}
	for _, s := range m.Strings {
		args = append(args, "-s", s.Name+"="+s.Value)
	}
	return append(args, m.Title, m.Output)
}

// MakeFself signs (and optionally compresses) a VELF into eboot.bin.
type MakeFself struct {
	AuthID           AuthID
	Compress         bool
	MemoryBudget     *uint32 // kilobytes
	PhysMemoryBudget *uint32 // kilobytes, subtracted from MemoryBudget
	AttributeCInfo   *uint32 // ATTRIBUTE word in control info section 6
	DisableASLR      bool
	Input            string
	Output           string
}

// Args returns the tool's argument list.
func (f MakeFself) Args() []string {
	authid := f.AuthID
	if authid == 0 {
		authid = AuthIDDefault
	}
	args := []string{"-a", strconv.FormatUint(uint64(authid), 10)}
	if f.Compress {
		args = append(args, "-c")
	}
	if f.MemoryBudget != nil {
		args = append(args, "-m", strconv.FormatUint(uint64(*f.MemoryBudget), 10))
	}
	if f.PhysMemoryBudget != nil {
		args = append(args, "-pm", strconv.FormatUint(uint64(*f.PhysMemoryBudget), 10))
	}
	if f.AttributeCInfo != nil {
		args = append(args, "-at", strconv.FormatUint(uint64(*f.AttributeCInfo), 10))
	}
	if f.DisableASLR {
		args = append(args, "-na")
	}
	return append(args, f.Input, f.Output)
}

// PackVpk packs param.sfo, eboot.bin and extra assets into a .vpk.
type PackVpk struct {
	Sfo        string
	Eboot      string
	Additional []Asset
	Output     string
}

// Args returns the tool's argument list.
func (p PackVpk) Args() []string {
	args := []string{"--sfo", p.Sfo, "--eboot", p.Eboot}
	for _, a := range p.Additional {
		args = append(args, "--add", a.Src+"="+a.Dst)
	}
	return append(args, p.Output)
}
