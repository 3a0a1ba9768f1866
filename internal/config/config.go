// Package config loads nestdo's own settings (file locations, history depth,
// drag thresholds, logging) from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	FileName = "config.toml"

	DefaultHistoryDepth  = 100
	DefaultDropThreshold = 0.25
	DefaultRowHeight     = 1
	DefaultLogLevel      = "info"
)

type Config struct {
	TasksFile     string  `toml:"tasks_file" json:"tasksFile"`
	SettingsFile  string  `toml:"settings_file" json:"settingsFile"`
	HistoryDepth  int     `toml:"history_depth" json:"historyDepth"`
	DropThreshold float64 `toml:"drop_threshold" json:"dropThreshold"`
	RowHeight     int     `toml:"row_height" json:"rowHeight"`
	Backup        bool    `toml:"backup" json:"backup"`
	LogFile       string  `toml:"log_file" json:"logFile,omitempty"`
	LogLevel      string  `toml:"log_level" json:"logLevel"`
}

// Default returns a config rooted at dir.
func Default(dir string) *Config {
	return &Config{
		TasksFile:     filepath.Join(dir, "tasks.txt"),
		SettingsFile:  filepath.Join(dir, "settings.txt"),
		HistoryDepth:  DefaultHistoryDepth,
		DropThreshold: DefaultDropThreshold,
		RowHeight:     DefaultRowHeight,
		LogLevel:      DefaultLogLevel,
	}
}

// Dir returns the config directory: $NESTDO_CONFIG_DIR, then
// $XDG_CONFIG_HOME/nestdo, then ~/.config/nestdo.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("NESTDO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); v != "" {
		return filepath.Join(v, "nestdo"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nestdo"), nil
}

// Load reads path over the defaults. An empty path means Dir()/config.toml;
// a missing file yields the defaults. Relative file paths inside the config
// are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, FileName)
	}
	dir := filepath.Dir(path)
	cfg := Default(dir)

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.resolve(dir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.TasksFile, &c.SettingsFile, &c.LogFile} {
		*p = expandHome(strings.TrimSpace(*p))
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	if c.HistoryDepth == 0 {
		c.HistoryDepth = DefaultHistoryDepth
	}
	if c.DropThreshold == 0 {
		c.DropThreshold = DefaultDropThreshold
	}
	if c.RowHeight == 0 {
		c.RowHeight = DefaultRowHeight
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) Validate() error {
	switch {
	case c.TasksFile == "":
		return errors.New("tasks_file must not be empty")
	case c.HistoryDepth < 0:
		return fmt.Errorf("history_depth must be positive, got %d", c.HistoryDepth)
	case c.DropThreshold <= 0 || c.DropThreshold > 0.5:
		return fmt.Errorf("drop_threshold must be in (0, 0.5], got %g", c.DropThreshold)
	case c.RowHeight < 1:
		return fmt.Errorf("row_height must be at least 1, got %d", c.RowHeight)
	}
	return nil
}

// Save writes cfg as TOML through a temp file and rename.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
