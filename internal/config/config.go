// Package config loads nvgrid's configuration file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"9fans.net/go/plan9/client"
	"github.com/cptaffe/nvgrid/internal/font"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Nvim NvimConfig `mapstructure:"nvim" yaml:"nvim"`
	// Srv is the unix socket the snapshot file server listens on.
	Srv  string     `mapstructure:"srv" yaml:"srv"`
	UI   UIConfig   `mapstructure:"ui" yaml:"ui"`
	Font FontConfig `mapstructure:"font" yaml:"font"`
	Log  LogConfig  `mapstructure:"log" yaml:"log"`
}

// NvimConfig selects the editor.
type NvimConfig struct {
	Binary string   `mapstructure:"binary" yaml:"binary"`
	Args   []string `mapstructure:"args" yaml:"args"`
	// Server, when set, is dialed instead of spawning Binary.
	Server string `mapstructure:"server" yaml:"server"`
}

// UIConfig controls attachment and reconciliation.
type UIConfig struct {
	Width          int           `mapstructure:"width" yaml:"width"`
	Height         int           `mapstructure:"height" yaml:"height"`
	ResizeDebounce time.Duration `mapstructure:"resize_debounce" yaml:"resize_debounce"`
	PopupmenuBatch int           `mapstructure:"popupmenu_batch" yaml:"popupmenu_batch"`
}

// MarshalYAML writes the debounce as a duration string.
func (c UIConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Width          int    `yaml:"width"`
		Height         int    `yaml:"height"`
		ResizeDebounce string `yaml:"resize_debounce"`
		PopupmenuBatch int    `yaml:"popupmenu_batch"`
	}{c.Width, c.Height, c.ResizeDebounce.String(), c.PopupmenuBatch}, nil
}

// FontConfig sets the font used before the editor sets 'guifont'.
type FontConfig struct {
	Guifont   string `mapstructure:"guifont" yaml:"guifont"`
	Linespace int    `mapstructure:"linespace" yaml:"linespace"`
}

// Font returns the configured font.
func (c FontConfig) Font() font.Font {
	f, _ := font.ParseGuifont(c.Guifont)
	return f.WithLinespace(c.Linespace)
}

// LogConfig controls logging.
type LogConfig struct {
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultResizeDebounce collapses bursts of window resizes.
const DefaultResizeDebounce = 10 * time.Millisecond

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Nvim: NvimConfig{Binary: "nvim"},
		Srv:  DefaultSrv(),
		UI: UIConfig{
			Width:          80,
			Height:         30,
			ResizeDebounce: DefaultResizeDebounce,
			PopupmenuBatch: popupmenu.DefaultBatch,
		},
		Font: FontConfig{Guifont: font.DefaultGuifont},
	}
}

// DefaultSrv returns the socket path in the current plan9port namespace.
func DefaultSrv() string {
	ns := client.Namespace()
	if ns == "" {
		ns = os.TempDir()
	}
	return filepath.Join(ns, "nvgrid")
}

// DefaultPath returns $XDG_CONFIG_HOME/nvgrid/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nvgrid", "config.yaml"), nil
}

// YAML renders c as a configuration file.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
