// Package config reads the optional bntxtool configuration file
// (~/.config/bntxtool/config.yaml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config mirrors the file. Pointer fields distinguish "not set" from zero
// values so flags only lose to values the user actually wrote.
type Config struct {
	LogLevel  *string `yaml:"log_level"`
	LogFormat *string `yaml:"log_format"`
	Backup    *bool   `yaml:"backup"`

	Inject  Inject  `yaml:"inject"`
	Export  Export  `yaml:"export"`
	Preview Preview `yaml:"preview"`
}

type Inject struct {
	TileMode        *string `yaml:"tile_mode"`
	SRGB            *bool   `yaml:"srgb"`
	ImportMips      *bool   `yaml:"import_mips"`
	SparseBinding   *bool   `yaml:"sparse_binding"`
	SparseResidency *bool   `yaml:"sparse_residency"`
	Codec           *string `yaml:"codec"`
}

type Export struct {
	Dir     *string `yaml:"dir"`
	Workers *int    `yaml:"workers"`
}

type Preview struct {
	Format  *string `yaml:"format"`
	MaxSize *int    `yaml:"max_size"`
}

// DefaultPath is the config file location under the user config directory
// ($XDG_CONFIG_HOME on Linux). It is empty when no such directory exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bntxtool", "config.yaml")
}

// Load reads the file at path. A missing file, or an empty path, yields a
// zero Config.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Export.Workers != nil && *cfg.Export.Workers < 1 {
		return cfg, fmt.Errorf("config %q: export.workers must be at least 1", path)
	}
	if cfg.Preview.MaxSize != nil && *cfg.Preview.MaxSize < 0 {
		return cfg, fmt.Errorf("config %q: preview.max_size must not be negative", path)
	}
	return cfg, nil
}

// Apply copies v into dst unless v is unset or the named flag was given on
// the command line.
func Apply[T any](fl *pflag.FlagSet, name string, dst *T, v *T) {
	if v == nil {
		return
	}
	if fl != nil && fl.Changed(name) {
		return
	}
	*dst = *v
}
