package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Load reads the configuration at path, or DefaultPath when path is empty.
// A missing file yields the defaults.  Each override runs after the
// defaults are registered and before the file is read; commands use it to
// bind flags.
func Load(path string, overrides ...func(*viper.Viper) error) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("nvim.binary", cfg.Nvim.Binary)
	v.SetDefault("nvim.args", cfg.Nvim.Args)
	v.SetDefault("nvim.server", cfg.Nvim.Server)
	v.SetDefault("srv", cfg.Srv)
	v.SetDefault("ui.width", cfg.UI.Width)
	v.SetDefault("ui.height", cfg.UI.Height)
	v.SetDefault("ui.resize_debounce", cfg.UI.ResizeDebounce)
	v.SetDefault("ui.popupmenu_batch", cfg.UI.PopupmenuBatch)
	v.SetDefault("font.guifont", cfg.Font.Guifont)
	v.SetDefault("font.linespace", cfg.Font.Linespace)
	v.SetDefault("log.verbose", cfg.Log.Verbose)

	for _, o := range overrides {
		if err := o(v); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.UI.Width <= 0 || c.UI.Height <= 0 {
		return fmt.Errorf("ui.width and ui.height must be positive, got %dx%d", c.UI.Width, c.UI.Height)
	}
	if c.UI.ResizeDebounce < 0 {
		return fmt.Errorf("ui.resize_debounce must not be negative")
	}
	if c.UI.PopupmenuBatch <= 0 {
		return fmt.Errorf("ui.popupmenu_batch must be positive")
	}
	if c.Nvim.Binary == "" && c.Nvim.Server == "" {
		return fmt.Errorf("one of nvim.binary or nvim.server is required")
	}
	return nil
}
