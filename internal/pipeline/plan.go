package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/artifact"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/manifest"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// plan holds the four stages of one artifact.
type plan struct {
	meta  stage
	elf   stage
	fself stage
	pack  stage
}

// buildPlan derives every stage's inputs, output and arguments. md may be
// nil when the artifact's manifest is unknown.
func buildPlan(art Artifact, paths artifact.Paths, tools config.ToolsConfig, md *manifest.Metadata) (plan, error) {
	if md == nil {
		md = &manifest.Metadata{}
	}

	title := md.Title
	if title == "" {
		stem, err := artifact.Title(art.Executable)
		if err != nil {
			return plan{}, err
		}
		title = stem
	}

	authidRaw := tools.MakeFself.AuthID
	if md.AuthID != "" {
		authidRaw = md.AuthID
	}
	authid, err := toolchain.ParseAuthID(authidRaw)
	if err != nil {
		return plan{}, fmt.Errorf("make_fself authid: %w", err)
	}
	compress := tools.MakeFself.Compress
	if md.Compress != nil {
		compress = *md.Compress
	}

	// The manifest holds the title and signing settings, so edits to it
	// invalidate the stages that consume them.
	var manifestInputs []string
	if art.ManifestPath != "" {
		manifestInputs = []string{art.ManifestPath}
	}

	assets := make([]toolchain.Asset, 0, len(tools.Pack.Assets)+len(md.Assets))
	assetSrcs := make([]string, 0, cap(assets))
	for _, a := range tools.Pack.Assets {
		assets = append(assets, toolchain.Asset{Src: a.Src, Dst: a.Dst})
		assetSrcs = append(assetSrcs, a.Src)
	}
	for _, a := range md.Assets {
		assets = append(assets, toolchain.Asset{Src: a.Src, Dst: a.Dst})
		assetSrcs = append(assetSrcs, a.Src)
	}

	return plan{
		meta: stage{
			name:   StageMksfoex,
			tool:   toolchain.ToolMksfoex,
			output: paths.Meta,
			inputs: manifestInputs,
			args: toolchain.Mksfoex{
				Dwords:  md.SfoDwords(),
				Strings: md.SfoStrings(),
				Title:   title,
				Output:  paths.Meta,
			}.Args(),
		},
		elf: stage{
			name:   StageElfCreate,
			tool:   toolchain.ToolElfCreate,
			output: paths.NativeExec,
			inputs: []string{paths.Executable},
			args: toolchain.ElfCreate{
				Verbosity:         tools.ElfCreate.Verbosity,
				AllowEmptyImports: tools.ElfCreate.AllowEmptyImports,
				ConfigFile:        tools.ElfCreate.Config,
				Input:             paths.Executable,
				Output:            paths.NativeExec,
			}.Args(),
		},
		fself: stage{
			name:   StageMakeFself,
			tool:   toolchain.ToolMakeFself,
			output: paths.SignedExec,
			inputs: append([]string{paths.NativeExec}, manifestInputs...),
			args: toolchain.MakeFself{
				AuthID:           authid,
				Compress:         compress,
				MemoryBudget:     tools.MakeFself.MemoryBudget,
				PhysMemoryBudget: tools.MakeFself.PhysMemoryBudget,
				AttributeCInfo:   tools.MakeFself.AttributeCInfo,
				DisableASLR:      tools.MakeFself.DisableASLR,
				Input:            paths.NativeExec,
				Output:           paths.SignedExec,
			}.Args(),
		},
		pack: stage{
			name:   StagePackVpk,
			tool:   toolchain.ToolPackVpk,
			output: paths.Package,
			inputs: append(append([]string{paths.Meta, paths.SignedExec}, manifestInputs...), assetSrcs...),
			args: toolchain.PackVpk{
				Sfo:        paths.Meta,
				Eboot:      paths.SignedExec,
				Additional: assets,
				Output:     paths.Package,
			}.Args(),
		},
	}, nil
}

// expandAssetDirs replaces every directory in srcs with the directory and
// each entry below it, so an edit at any depth is seen by the staleness
// check. Missing sources pass through unchanged.
func expandAssetDirs(srcs []string) ([]string, error) {
	expanded := make([]string, 0, len(srcs))
	for _, src := range srcs {
		info, err := os.Stat(src)
		if err != nil || !info.IsDir() {
			expanded = append(expanded, src)
			continue
		}
		err = filepath.WalkDir(src, func(path string, _ fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			expanded = append(expanded, path)
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, vserrors.FileSystemError("walk asset directory", err).WithContext("path", src)
		}
	}
	return expanded, nil
}
