// Package manifest reads per-package packaging settings from the
// [package.metadata.vita] table of a Cargo.toml.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// Metadata is the [package.metadata.vita] table. Zero fields fall back to
// configuration defaults.
type Metadata struct {
	Title      string            `toml:"title"`
	TitleID    string            `toml:"title_id"`
	AppVersion string            `toml:"app_version"`
	Strings    map[string]string `toml:"strings"`
	Dwords     map[string]uint32 `toml:"dwords"`
	AuthID     string            `toml:"authid"`
	Compress   *bool             `toml:"compress"`
	Assets     []Asset           `toml:"assets"`
}

// Asset is a file added to the package. Src is resolved against the
// manifest's directory by Load.
type Asset struct {
	Src string `toml:"src"`
	Dst string `toml:"dst"`
}

type cargoManifest struct {
	Package struct {
		Metadata struct {
			Vita *Metadata `toml:"vita"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// Load parses the Cargo.toml at path. A manifest without the vita table
// yields a zero Metadata.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the build tool
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var cm cargoManifest
	if err := toml.Unmarshal(data, &cm); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	md := cm.Package.Metadata.Vita
	if md == nil {
		return &Metadata{}, nil
	}

	dir := filepath.Dir(path)
	for i, a := range md.Assets {
		if a.Src == "" || a.Dst == "" {
			return nil, fmt.Errorf("%s: package.metadata.vita.assets[%d]: src and dst are required", path, i)
		}
		if !filepath.IsAbs(a.Src) {
			md.Assets[i].Src = filepath.Join(dir, a.Src)
		}
	}
	return md, nil
}

// SfoStrings returns the string parameters for param.sfo in a stable order:
// TITLE_ID and APP_VER first, then the free-form strings sorted by key.
func (m *Metadata) SfoStrings() []toolchain.Pair[string] {
	var out []toolchain.Pair[string]
	if m.TitleID != "" {
		out = append(out, toolchain.Pair[string]{Name: "TITLE_ID", Value: m.TitleID})
	}
	if m.AppVersion != "" {
		out = append(out, toolchain.Pair[string]{Name: "APP_VER", Value: m.AppVersion})
	}
	for _, k := range sortedKeys(m.Strings) {
		out = append(out, toolchain.Pair[string]{Name: k, Value: m.Strings[k]})
	}
	return out
}

// SfoDwords returns the numeric parameters for param.sfo sorted by key.
func (m *Metadata) SfoDwords() []toolchain.Pair[uint32] {
	var out []toolchain.Pair[uint32]
	for _, k := range sortedKeys(m.Dwords) {
		out = append(out, toolchain.Pair[uint32]{Name: k, Value: m.Dwords[k]})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
