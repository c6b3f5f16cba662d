// Package config loads runtime configuration from YAML with full
// defaults, so a missing or partial file is never an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration.
type Config struct {
	Display     DisplayConfig     `yaml:"display"`
	Swapchain   SwapchainConfig   `yaml:"swapchain"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// DisplayConfig shapes the simulated display and its preview window.
type DisplayConfig struct {
	// RefreshRate is the simulated display cadence in Hz.
	RefreshRate float64 `yaml:"refresh_rate"`
	// WindowWidth and WindowHeight set the initial preview window size.
	WindowWidth  int `yaml:"window_width"`
	WindowHeight int `yaml:"window_height"`
}

// SwapchainConfig shapes swapchain allocation.
type SwapchainConfig struct {
	// ImageCount is the ring depth of every created swapchain.
	ImageCount int `yaml:"image_count"`
}

// DiagnosticsConfig controls the websocket diagnostics stream.
type DiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Display: DisplayConfig{
			RefreshRate:  90,
			WindowWidth:  1600,
			WindowHeight: 900,
		},
		Swapchain: SwapchainConfig{
			ImageCount: 3,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: false,
			Addr:    "localhost:7478",
		},
	}
}

// Load reads a config file over the defaults. A missing file returns the
// defaults without error; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize clamps nonsense values back to defaults.
func (c *Config) normalize() {
	def := Default()
	if c.Display.RefreshRate <= 0 {
		c.Display.RefreshRate = def.Display.RefreshRate
	}
	if c.Display.WindowWidth <= 0 {
		c.Display.WindowWidth = def.Display.WindowWidth
	}
	if c.Display.WindowHeight <= 0 {
		c.Display.WindowHeight = def.Display.WindowHeight
	}
	if c.Swapchain.ImageCount <= 0 {
		c.Swapchain.ImageCount = def.Swapchain.ImageCount
	}
	if c.Diagnostics.Addr == "" {
		c.Diagnostics.Addr = def.Diagnostics.Addr
	}
}
