package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/nexus/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Settings      SettingsConfig `mapstructure:"settings" yaml:"settings"`
	Surface       SurfaceConfig  `mapstructure:"surface" yaml:"surface"`
	Bridge        BridgeConfig   `mapstructure:"bridge" yaml:"bridge"`
	Tabs          TabsConfig     `mapstructure:"tabs" yaml:"tabs"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// SettingsConfig selects where browser settings are persisted.
type SettingsConfig struct {
	// Backend is "file" or "bolt".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path overrides the backend's default location under state_dir.
	Path string `mapstructure:"path" yaml:"path"`
}

// SurfaceConfig selects the rendering surface driver.
type SurfaceConfig struct {
	// Driver is "headless" or "chromedp".
	Driver string       `mapstructure:"driver" yaml:"driver"`
	Chrome ChromeConfig `mapstructure:"chrome" yaml:"chrome"`
}

// ChromeConfig configures the chromedp driver.
type ChromeConfig struct {
	Headless             bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath             string   `mapstructure:"exec_path" yaml:"exec_path"`
	Flags                []string `mapstructure:"flags" yaml:"flags"`
	ActionTimeoutSeconds int      `mapstructure:"action_timeout_seconds" yaml:"action_timeout_seconds"`
}

// BridgeConfig tunes the host bridge.
type BridgeConfig struct {
	QueueDepth   int `mapstructure:"queue_depth" yaml:"queue_depth"`
	DedupeWindow int `mapstructure:"dedupe_window" yaml:"dedupe_window"`
}

// TabsConfig tunes the tab manager.
type TabsConfig struct {
	ZoomStep float64 `mapstructure:"zoom_step" yaml:"zoom_step"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".nexus", "state"),
		Settings: SettingsConfig{
			Backend: "file",
			Path:    "",
		},
		Surface: SurfaceConfig{
			Driver: "headless",
			Chrome: ChromeConfig{
				Headless:             true,
				ExecPath:             "",
				Flags:                []string{},
				ActionTimeoutSeconds: 30,
			},
		},
		Bridge: BridgeConfig{
			QueueDepth:   256,
			DedupeWindow: 1024,
		},
		Tabs: TabsConfig{
			ZoomStep: schema.DefaultZoomStep,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nexus", "config.yaml"), nil
}
