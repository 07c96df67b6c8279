package artifact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFor(t *testing.T) {
	tests := []struct {
		name       string
		executable string
		want       Paths
	}{
		{
			name:       "no extension",
			executable: filepath.Join("target", "armv7-sony-vita-newlibeabihf", "debug", "game"),
			want: Paths{
				Executable: filepath.Join("target", "armv7-sony-vita-newlibeabihf", "debug", "game"),
				NativeExec: filepath.Join("target", "armv7-sony-vita-newlibeabihf", "debug", "game.velf"),
				Meta:       filepath.Join("target", "armv7-sony-vita-newlibeabihf", "debug", "game.sfo"),
				SignedExec: filepath.Join("target", "armv7-sony-vita-newlibeabihf", "debug", "game.eboot-bin"),
				Package:    filepath.Join("target", "armv7-sony-vita-newlibeabihf", "debug", "game.vpk"),
			},
		},
		{
			name:       "elf extension replaced",
			executable: filepath.Join("out", "game.elf"),
			want: Paths{
				Executable: filepath.Join("out", "game.elf"),
				NativeExec: filepath.Join("out", "game.velf"),
				Meta:       filepath.Join("out", "game.sfo"),
				SignedExec: filepath.Join("out", "game.eboot-bin"),
				Package:    filepath.Join("out", "game.vpk"),
			},
		},
		{
			name:       "dotted directory untouched",
			executable: filepath.Join("v1.2", "game"),
			want: Paths{
				Executable: filepath.Join("v1.2", "game"),
				NativeExec: filepath.Join("v1.2", "game.velf"),
				Meta:       filepath.Join("v1.2", "game.sfo"),
				SignedExec: filepath.Join("v1.2", "game.eboot-bin"),
				Package:    filepath.Join("v1.2", "game.vpk"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PathsFor(tt.executable)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, PathsFor(tt.executable), "derivation must be deterministic")
		})
	}
}

func TestPathsFor_NoCollisionsAcrossArtifacts(t *testing.T) {
	executables := []string{
		filepath.Join("target", "debug", "game"),
		filepath.Join("target", "debug", "tool"),
		filepath.Join("target", "release", "game"),
		filepath.Join("target", "debug", "examples", "game"),
		filepath.Join("target", "debug", "game-2"),
	}

	seen := map[string]string{}
	for _, exe := range executables {
		for _, p := range PathsFor(exe).All() {
			if owner, ok := seen[p]; ok {
				t.Fatalf("path %s derived for both %s and %s", p, owner, exe)
			}
			seen[p] = exe
		}
	}
	assert.Len(t, seen, 5*len(executables))
}

func TestTitle(t *testing.T) {
	title, err := Title(filepath.Join("target", "debug", "hello-world"))
	require.NoError(t, err)
	assert.Equal(t, "hello-world", title)

	title, err = Title("game.elf")
	require.NoError(t, err)
	assert.Equal(t, "game", title)

	_, err = Title("")
	require.Error(t, err)
}
