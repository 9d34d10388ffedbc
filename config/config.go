// Package config holds the settings of a findidentical run, loaded from
// defaults, an optional YAML file and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"findidentical/imageprocessor"
	"findidentical/utils"
)

// DefaultHome is where the cache, database and config file live
const DefaultHome = "~/.fii"

// FileName is the config file looked up inside the home directory
const FileName = "config.yaml"

// Config represents the settings loaded from YAML and flags
type Config struct {
	// HomeDir holds the cache directories and the database
	HomeDir string `yaml:"home_dir"`
	// CacheDir defaults to <home>/cache
	CacheDir string `yaml:"cache_dir,omitempty"`
	// DatabasePath defaults to <home>/findidentical.db
	DatabasePath string `yaml:"database_path,omitempty"`

	// Threads is the worker count; 0 uses every logical core
	Threads    int    `yaml:"threads"`
	Exhaustive bool   `yaml:"exhaustive"`
	Decoder    string `yaml:"decoder"` // "go" or "opencv"

	// ExportDir writes every export format there; ExportFile writes one file
	ExportDir  string `yaml:"export_dir,omitempty"`
	ExportFile string `yaml:"export_file,omitempty"`
	Histogram  bool   `yaml:"histogram"`

	Debug     bool   `yaml:"debug"`
	LogFile   string `yaml:"log_file"`
	NoHistory bool   `yaml:"no_history"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		HomeDir: DefaultHome,
		Decoder: string(imageprocessor.BackendGo),
		LogFile: "findidentical.log",
	}
	cfg.resolve()
	return cfg
}

// Load reads a YAML file over the defaults. An empty path looks for
// config.yaml in the default home and falls back to the defaults when it
// does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.HomeDir, FileName)
	}

	data, err := os.ReadFile(utils.ExpandHome(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// derived paths are recomputed unless the file sets them
	cfg.CacheDir, cfg.DatabasePath = "", ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	cfg.resolve()
	return cfg, nil
}

// resolve expands "~" and fills in the paths derived from HomeDir
func (c *Config) resolve() {
	c.HomeDir = utils.ExpandHome(c.HomeDir)
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.HomeDir, "cache")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.HomeDir, "findidentical.db")
	}
	c.CacheDir = utils.ExpandHome(c.CacheDir)
	c.DatabasePath = utils.ExpandHome(c.DatabasePath)
	c.ExportDir = utils.ExpandHome(c.ExportDir)
	c.ExportFile = utils.ExpandHome(c.ExportFile)
}

// SetHome moves the home directory and every path derived from it
func (c *Config) SetHome(home string) {
	oldCache := filepath.Join(c.HomeDir, "cache")
	oldDB := filepath.Join(c.HomeDir, "findidentical.db")
	c.HomeDir = home
	if c.CacheDir == oldCache {
		c.CacheDir = ""
	}
	if c.DatabasePath == oldDB {
		c.DatabasePath = ""
	}
	c.resolve()
}

// Backend returns the decoder backend named by Decoder
func (c *Config) Backend() (imageprocessor.Backend, error) {
	return imageprocessor.ParseBackend(c.Decoder)
}

// Validate checks the values that cannot be fixed up silently
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	if _, err := c.Backend(); err != nil {
		return err
	}
	if c.ExportDir != "" && c.ExportFile != "" {
		return fmt.Errorf("export_dir and export_file are mutually exclusive")
	}
	if c.HomeDir == "" {
		return fmt.Errorf("home_dir must be set")
	}
	return nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
