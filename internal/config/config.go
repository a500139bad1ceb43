package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name looked up in the working directory.
const DefaultConfigFile = ".incflat.yaml"

// WatchConfig configures the watch command
type WatchConfig struct {
	// Debounce coalesces bursts of file events into one rebuild
	Debounce time.Duration `yaml:"debounce"`
}

// Config represents incflat configuration options
type Config struct {
	// IncludeDirs is the ordered search path for angled and unresolved quoted references
	IncludeDirs []string `yaml:"include_dirs"`

	// Output is the destination file; empty means stdout
	Output string `yaml:"output"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LineEnding is the terminator written after each emitted line (lf, crlf)
	LineEnding string `yaml:"line_ending"`

	// MaxDepth limits inclusion nesting (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`

	// DetectCycles fails a run that re-enters a file already being expanded
	DetectCycles bool `yaml:"detect_cycles"`

	// KeepPartial writes output produced before a failure instead of discarding it
	KeepPartial bool `yaml:"keep_partial"`

	// Watch contains watch command configuration
	Watch WatchConfig `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		IncludeDirs:  []string{},
		Output:       "",
		LogLevel:     "info",
		LineEnding:   "lf",
		MaxDepth:     200,
		DetectCycles: true,
		KeepPartial:  false,
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
// Relative include_dirs and output are resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields distinguish "absent" from an explicit zero value.
	type yamlConfig struct {
		IncludeDirs  []string `yaml:"include_dirs"`
		Output       *string  `yaml:"output"`
		LogLevel     *string  `yaml:"log_level"`
		LineEnding   *string  `yaml:"line_ending"`
		MaxDepth     *int     `yaml:"max_depth"`
		DetectCycles *bool    `yaml:"detect_cycles"`
		KeepPartial  *bool    `yaml:"keep_partial"`
		Watch        *struct {
			Debounce string `yaml:"debounce"`
		} `yaml:"watch"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	baseDir := filepath.Dir(path)

	if yamlCfg.IncludeDirs != nil {
		cfg.IncludeDirs = make([]string, 0, len(yamlCfg.IncludeDirs))
		for _, dir := range yamlCfg.IncludeDirs {
			cfg.IncludeDirs = append(cfg.IncludeDirs, resolveAgainst(baseDir, dir))
		}
	}
	if yamlCfg.Output != nil {
		cfg.Output = *yamlCfg.Output
		if cfg.Output != "" {
			cfg.Output = resolveAgainst(baseDir, cfg.Output)
		}
	}
	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = *yamlCfg.LogLevel
	}
	if yamlCfg.LineEnding != nil {
		cfg.LineEnding = *yamlCfg.LineEnding
	}
	if yamlCfg.MaxDepth != nil {
		cfg.MaxDepth = *yamlCfg.MaxDepth
	}
	if yamlCfg.DetectCycles != nil {
		cfg.DetectCycles = *yamlCfg.DetectCycles
	}
	if yamlCfg.KeepPartial != nil {
		cfg.KeepPartial = *yamlCfg.KeepPartial
	}
	if yamlCfg.Watch != nil && yamlCfg.Watch.Debounce != "" {
		debounce, err := time.ParseDuration(yamlCfg.Watch.Debounce)
		if err != nil {
			return nil, fmt.Errorf("invalid watch.debounce format %q: %w", yamlCfg.Watch.Debounce, err)
		}
		cfg.Watch.Debounce = debounce
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .incflat.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultConfigFile))
}

func resolveAgainst(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" || baseDir == "." {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Overrides carries CLI flag values. Nil fields leave the config unchanged.
type Overrides struct {
	IncludeDirs  []string
	Output       *string
	LogLevel     *string
	LineEnding   *string
	MaxDepth     *int
	DetectCycles *bool
	KeepPartial  *bool
	Debounce     *time.Duration
}

// MergeWithFlags merges CLI flags into the configuration.
// Flag include directories are searched before those from the config file.
func (c *Config) MergeWithFlags(o Overrides) {
	if len(o.IncludeDirs) > 0 {
		merged := make([]string, 0, len(o.IncludeDirs)+len(c.IncludeDirs))
		merged = append(merged, o.IncludeDirs...)
		merged = append(merged, c.IncludeDirs...)
		c.IncludeDirs = merged
	}
	if o.Output != nil {
		c.Output = *o.Output
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LineEnding != nil {
		c.LineEnding = *o.LineEnding
	}
	if o.MaxDepth != nil {
		c.MaxDepth = *o.MaxDepth
	}
	if o.DetectCycles != nil {
		c.DetectCycles = *o.DetectCycles
	}
	if o.KeepPartial != nil {
		c.KeepPartial = *o.KeepPartial
	}
	if o.Debounce != nil {
		c.Watch.Debounce = *o.Debounce
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.LineEnding != "lf" && c.LineEnding != "crlf" {
		return fmt.Errorf("invalid line_ending %q, must be one of: lf, crlf", c.LineEnding)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}

	if !c.DetectCycles && c.MaxDepth == 0 {
		return fmt.Errorf("max_depth must be > 0 when detect_cycles is disabled")
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %v", c.Watch.Debounce)
	}

	for i, dir := range c.IncludeDirs {
		if dir == "" {
			return fmt.Errorf("include_dirs[%d] is empty", i)
		}
	}

	return nil
}

// LineTerminator returns the byte sequence for LineEnding.
func (c *Config) LineTerminator() string {
	if c.LineEnding == "crlf" {
		return "\r\n"
	}
	return "\n"
}
