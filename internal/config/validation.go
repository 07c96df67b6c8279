package config

import (
	"fmt"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// Validate checks field ranges. It does not check the toolchain root; that is
// a startup precondition handled by ToolchainRoot.
func (c *Config) Validate() error {
	if v := c.Tools.ElfCreate.Verbosity; v < 0 || v > 3 {
		return vserrors.ConfigInvalid("tools.elf_create.verbosity", fmt.Sprintf("must be between 0 and 3, got %d", v))
	}
	if c.Tools.MakeFself.AuthID != "" {
		if _, err := toolchain.ParseAuthID(c.Tools.MakeFself.AuthID); err != nil {
			return vserrors.ConfigInvalid("tools.make_fself.authid", err.Error())
		}
	}
	for i, a := range c.Tools.Pack.Assets {
		if a.Src == "" || a.Dst == "" {
			return vserrors.ConfigInvalid(fmt.Sprintf("tools.pack.assets[%d]", i), "src and dst are required")
		}
	}
	if c.Stages.Timeout < 0 {
		return vserrors.ConfigInvalid("stages.timeout", "cannot be negative")
	}
	if c.Stages.Retries < 0 {
		return vserrors.ConfigInvalid("stages.retries", "cannot be negative")
	}
	if _, ok := ParseBackoff(string(c.Stages.RetryBackoff)); !ok {
		return vserrors.ConfigInvalid("stages.retry_backoff", fmt.Sprintf("unknown mode %q", c.Stages.RetryBackoff))
	}
	return nil
}

// ToolchainRoot returns the configured toolchain root or a precondition error
// when neither the config file nor $VITASDK provides one.
func (c *Config) ToolchainRoot() (string, error) {
	if c.Toolchain.Root == "" {
		return "", vserrors.ToolchainRootMissing(EnvToolchainRoot)
	}
	return c.Toolchain.Root, nil
}
