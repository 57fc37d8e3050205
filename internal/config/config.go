package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config drives one aggregate run. Nothing below reads the process
// environment directly; FromViper is the only place env and flags land.
type Config struct {
	// Dir is the aggregate root holding allocation/<y>/<m>/... files.
	Dir string `yaml:"-"`

	SkipAllocated bool   `yaml:"skip_allocated"`
	Sample        bool   `yaml:"sample"`
	Format        string `yaml:"format"`
	Verbose       bool   `yaml:"verbose"`
}

// Default returns the built-in settings for dir.
func Default(dir string) *Config {
	return &Config{Dir: dir, Format: FormatText}
}

// Validate ensures the settings are usable.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("config dir is required; set HOME, TIMEWARRIORDB or --config-dir")
	}
	switch c.Format {
	case FormatText, FormatTable, FormatJSON:
	default:
		return fmt.Errorf("format must be one of text, table, json; got %q", c.Format)
	}
	return nil
}

// Path returns the settings file path for an aggregate dir.
func Path(dir string) string {
	return filepath.Join(dir, "config.yml")
}

// DefaultDir resolves the aggregate dir from the Timewarrior data dir.
func DefaultDir(timewarriorDB, home string) string {
	if timewarriorDB != "" {
		return filepath.Join(timewarriorDB, "aggregate")
	}
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".timewarrior", "aggregate")
}

// LoadOptional reads <dir>/config.yml on top of the defaults. A missing
// file yields the defaults.
func LoadOptional(dir string) (*Config, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(dir), nil
		}
		return nil, err
	}
	cfg, err := FromYAML(dir, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML parses and validates settings from raw YAML bytes.
func FromYAML(dir string, data []byte) (*Config, error) {
	cfg := Default(dir)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	cfg.Dir = dir
	if cfg.Format == "" {
		cfg.Format = FormatText
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper resolves the dir, loads the settings file and applies env and
// flag overrides bound on v.
func FromViper(v *viper.Viper) (*Config, error) {
	dir := v.GetString("config-dir")
	if dir == "" {
		dir = DefaultDir(v.GetString("timewarriordb"), v.GetString("home"))
	}
	if dir == "" {
		return nil, Default(dir).Validate()
	}
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if v.IsSet("skip-allocated") {
		cfg.SkipAllocated = switchOn(v.GetString("skip-allocated"))
	}
	if v.IsSet("sample") {
		cfg.Sample = switchOn(v.GetString("sample"))
	}
	if v.IsSet("verbose") {
		cfg.Verbose = switchOn(v.GetString("verbose"))
	}
	if f := strings.TrimSpace(v.GetString("format")); f != "" {
		cfg.Format = strings.ToLower(f)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bind registers the environment names understood by FromViper.
func Bind(v *viper.Viper) {
	v.AllowEmptyEnv(true)
	_ = v.BindEnv("home", "HOME")
	_ = v.BindEnv("timewarriordb", "TIMEWARRIORDB")
	_ = v.BindEnv("config-dir", "AGGREGATE_CONFIG_DIR")
	_ = v.BindEnv("skip-allocated", "SKIP_ALLOCATED")
	_ = v.BindEnv("sample", "AGGREGATE_SAMPLE")
	_ = v.BindEnv("format", "AGGREGATE_FORMAT")
}

// switchOn treats a present switch as on unless it spells a false value,
// so SKIP_ALLOCATED= and SKIP_ALLOCATED=yes both enable it.
func switchOn(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return !strings.EqualFold(s, "off") && !strings.EqualFold(s, "no")
	}
	return b
}
