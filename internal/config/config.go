// Package config loads cargo-vitasdk settings from an optional YAML file, .env
// files and the process environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the configuration file looked up when --config is not given.
	DefaultPath = "vitasdk.yaml"

	// EnvToolchainRoot names the toolchain installation root.
	EnvToolchainRoot = "VITASDK"
	// EnvCargo overrides the cargo binary; cargo sets it for its subcommands.
	EnvCargo = "CARGO"

	DefaultTarget   = "armv7-sony-vita-newlibeabihf"
	DefaultBuildStd = "panic_abort,std"
)

// Config represents the application configuration.
type Config struct {
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Tools     ToolsConfig     `yaml:"tools"`
	Stages    StagesConfig    `yaml:"stages"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ToolchainConfig locates the build tool and the packaging tools.
type ToolchainConfig struct {
	Root     string `yaml:"root,omitempty"`      // overrides $VITASDK
	Cargo    string `yaml:"cargo,omitempty"`     // overrides $CARGO
	Target   string `yaml:"target,omitempty"`    // --target value
	BuildStd string `yaml:"build_std,omitempty"` // -Zbuild-std value; "-" disables the flag
}

// ToolsConfig holds defaults for the packaging tool invocations.
type ToolsConfig struct {
	ElfCreate ElfCreateConfig `yaml:"elf_create"`
	MakeFself MakeFselfConfig `yaml:"make_fself"`
	Pack      PackConfig      `yaml:"pack"`
}

// ElfCreateConfig configures vita-elf-create.
type ElfCreateConfig struct {
	Verbosity         int    `yaml:"verbosity,omitempty"` // 0-3
	AllowEmptyImports bool   `yaml:"allow_empty_imports,omitempty"`
	Config            string `yaml:"config,omitempty"` // path to a YAML exports/imports config
}

// MakeFselfConfig configures vita-make-fself.
type MakeFselfConfig struct {
	AuthID           string  `yaml:"authid,omitempty"` // preset name or number
	Compress         bool    `yaml:"compress,omitempty"`
	MemoryBudget     *uint32 `yaml:"memory_budget,omitempty"`      // kilobytes
	PhysMemoryBudget *uint32 `yaml:"phys_memory_budget,omitempty"` // kilobytes
	AttributeCInfo   *uint32 `yaml:"attribute_cinfo,omitempty"`
	DisableASLR      bool    `yaml:"disable_aslr,omitempty"`
}

// PackConfig configures vita-pack-vpk.
type PackConfig struct {
	Assets []Asset `yaml:"assets,omitempty"`
}

// Asset is an additional file or directory added to every package.
type Asset struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// StagesConfig controls how stage tools are run.
type StagesConfig struct {
	Timeout      time.Duration `yaml:"timeout,omitempty"` // 0 = no deadline
	Retries      int           `yaml:"retries,omitempty"`
	RetryBackoff Backoff       `yaml:"retry_backoff,omitempty"`
	RetryInitial time.Duration `yaml:"retry_initial,omitempty"`
	RetryMax     time.Duration `yaml:"retry_max,omitempty"`
}

// Backoff is how the delay between retries of a failed stage tool grows.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

var backoffs = []Backoff{BackoffFixed, BackoffLinear, BackoffExponential}

// ParseBackoff matches raw against the known modes, ignoring case and
// surrounding space.
func ParseBackoff(raw string) (Backoff, bool) {
	b := Backoff(strings.ToLower(strings.TrimSpace(raw)))
	return b, slices.Contains(backoffs, b)
}

// OutputConfig configures optional build records.
type OutputConfig struct {
	EventsDB    string `yaml:"events_db,omitempty"`    // SQLite event history
	MetricsFile string `yaml:"metrics_file,omitempty"` // Prometheus textfile
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a configuration with all defaults applied and no file or
// environment input.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file. A missing file is an error
// unless path is DefaultPath, in which case defaults are used.
func Load(path string) (*Config, error) {
	loadEnvFile()

	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied config path
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Toolchain.Root == "" {
		c.Toolchain.Root = os.Getenv(EnvToolchainRoot)
	}
	if c.Toolchain.Cargo == "" {
		c.Toolchain.Cargo = os.Getenv(EnvCargo)
	}
}

func (c *Config) applyDefaults() {
	if c.Toolchain.Cargo == "" {
		c.Toolchain.Cargo = "cargo"
	}
	if c.Toolchain.Target == "" {
		c.Toolchain.Target = DefaultTarget
	}
	if c.Toolchain.BuildStd == "" {
		c.Toolchain.BuildStd = DefaultBuildStd
	}
	if c.Stages.RetryBackoff == "" {
		c.Stages.RetryBackoff = BackoffLinear
	} else if b, ok := ParseBackoff(string(c.Stages.RetryBackoff)); ok {
		c.Stages.RetryBackoff = b
	}
	if c.Stages.RetryInitial == 0 {
		c.Stages.RetryInitial = time.Second
	}
	if c.Stages.RetryMax == 0 {
		c.Stages.RetryMax = 30 * time.Second
	}
	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
}
