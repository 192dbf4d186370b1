// Package config loads grocer settings from a TOML file.
//
// A missing file is not an error: Load returns Default(). Command-line flags
// override whatever the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/roach88/grocer/internal/grocery"
	"github.com/roach88/grocer/internal/store"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "grocer.toml"

// Config holds the settings a grocer command runs with.
type Config struct {
	Database            string `toml:"database" comment:"path to the SQLite price history file"`
	CheckReferences     bool   `toml:"check_references" comment:"reject prices, coupons and tags for unknown stores or items"`
	DefaultQuantityType string `toml:"default_quantity_type" comment:"unit recorded when a price is logged without one"`
	Limits              Limits `toml:"limits"`
}

// Limits are the default sizes of the three rankings.
type Limits struct {
	Value     int `toml:"value"`
	Frequency int `toml:"frequency"`
	Diversity int `toml:"diversity"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:            "grocer.db",
		CheckReferences:     true,
		DefaultQuantityType: grocery.DefaultQuantityType,
		Limits: Limits{
			Value:     store.DefaultValueLimit,
			Frequency: store.DefaultFrequencyLimit,
			Diversity: store.DefaultDiversityLimit,
		},
	}
}

// Load reads the config file at path over the defaults. Keys absent from the
// file keep their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.NewDecoder(bytes.NewReader(data)).Strict(true).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database must not be empty")
	}
	if c.Limits.Value < 0 || c.Limits.Frequency < 0 || c.Limits.Diversity < 0 {
		return fmt.Errorf("limits must not be negative: value=%d frequency=%d diversity=%d",
			c.Limits.Value, c.Limits.Frequency, c.Limits.Diversity)
	}
	return nil
}

// Save writes c to path as TOML, replacing any existing file.
func Save(path string, c Config) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
