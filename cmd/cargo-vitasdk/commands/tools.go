package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// ToolsCmd implements the 'tools' command.
type ToolsCmd struct{}

func (t *ToolsCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	rootDir, err := cfg.ToolchainRoot()
	if err != nil {
		return err
	}
	tc, err := toolchain.New(rootDir)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.Out, "Toolchain root: %s\n", tc.Root())
	missing := 0
	for _, tool := range toolchain.Tools {
		path := tc.Path(tool)
		state := color.GreenString("ok")
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			state = color.RedString("missing")
			missing++
		}
		_, _ = fmt.Fprintf(g.Out, "  %-16s %s %s\n", tool, path, state)
	}

	if missing > 0 {
		return vserrors.New(vserrors.CategoryPrecondition, vserrors.SeverityError, "packaging tools are missing").
			WithContext("missing", missing).
			WithContext("root", tc.Root())
	}
	return nil
}
