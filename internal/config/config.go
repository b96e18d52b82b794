// Package config loads synchronization settings from a TOML file and
// supports live reload.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds tunable settings for the synchronization core.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LayoutDebounceMs is the layout reconciler's debounce window.
	LayoutDebounceMs int `toml:"layout_debounce_ms"`

	// ActiveDebounceMs is the active-editor synchronizer's debounce window.
	ActiveDebounceMs int `toml:"active_debounce_ms"`

	// ViewportWidth and ViewportHeight size created backend windows.
	ViewportWidth  int `toml:"viewport_width"`
	ViewportHeight int `toml:"viewport_height"`

	// ClearUndoFunction names the backend function invoked to reset undo
	// history on freshly initialized buffers.
	ClearUndoFunction string `toml:"clear_undo_function"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		LogLevel:          "info",
		LayoutDebounceMs:  100,
		ActiveDebounceMs:  50,
		ViewportWidth:     1000,
		ViewportHeight:    100,
		ClearUndoFunction: "VSCodeClearUndo",
	}
}

// Load reads configuration from path, applying defaults for missing fields.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.LayoutDebounceMs < 0 {
		return fmt.Errorf("layout_debounce_ms must not be negative: %d", c.LayoutDebounceMs)
	}
	if c.ActiveDebounceMs < 0 {
		return fmt.Errorf("active_debounce_ms must not be negative: %d", c.ActiveDebounceMs)
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive: %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// LayoutDebounce returns the layout debounce window as a duration.
func (c Config) LayoutDebounce() time.Duration {
	return time.Duration(c.LayoutDebounceMs) * time.Millisecond
}

// ActiveDebounce returns the active debounce window as a duration.
func (c Config) ActiveDebounce() time.Duration {
	return time.Duration(c.ActiveDebounceMs) * time.Millisecond
}
