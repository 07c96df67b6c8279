package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
)

func TestNew_ResolvesToolsUnderBin(t *testing.T) {
	root := t.TempDir()
	tc, err := New(root)
	require.NoError(t, err)

	assert.Equal(t, root, tc.Root())
	assert.Equal(t, filepath.Join(root, "bin", "vita-elf-create"), tc.Path(ToolElfCreate))
	assert.Equal(t, filepath.Join(root, "bin", "vita-mksfoex"), tc.Path(ToolMksfoex))
	assert.Equal(t, filepath.Join(root, "bin", "vita-make-fself"), tc.Path(ToolMakeFself))
	assert.Equal(t, filepath.Join(root, "bin", "vita-pack-vpk"), tc.Path(ToolPackVpk))
}

func TestNew_Preconditions(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	assert.True(t, vserrors.IsCategory(err, vserrors.CategoryPrecondition))

	_, err = New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, vserrors.IsCategory(err, vserrors.CategoryPrecondition))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = New(file)
	require.Error(t, err)
	assert.True(t, vserrors.IsCategory(err, vserrors.CategoryPrecondition))
}

func TestToolString(t *testing.T) {
	assert.Equal(t, "vita-pack-vpk", ToolPackVpk.String())
	assert.Equal(t, "tool(42)", Tool(42).String())
}
