package stream

import (
	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
)

// Command describes the build tool invocation.
type Command struct {
	Program  string // cargo
	Target   string // --target value
	BuildStd string // -Zbuild-std value; empty or "-" omits the flag
	Dir      string // working directory; empty inherits ours
}

// CommandFromConfig builds a Command from the toolchain section.
func CommandFromConfig(tc config.ToolchainConfig) Command {
	return Command{Program: tc.Cargo, Target: tc.Target, BuildStd: tc.BuildStd}
}

// Args returns the full argument list: the fixed flags that make the output
// machine readable followed by userArgs verbatim.
func (c Command) Args(userArgs []string) []string {
	args := []string{"build", "--message-format=json-render-diagnostics"}
	if c.BuildStd != "" && c.BuildStd != "-" {
		args = append(args, "-Zbuild-std="+c.BuildStd)
	}
	target := c.Target
	if target == "" {
		target = config.DefaultTarget
	}
	args = append(args, "--target", target)
	return append(args, userArgs...)
}
