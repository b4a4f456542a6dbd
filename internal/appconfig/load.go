package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("settings.backend", cfg.Settings.Backend)
	v.SetDefault("settings.path", cfg.Settings.Path)
	v.SetDefault("surface.driver", cfg.Surface.Driver)
	v.SetDefault("surface.chrome.headless", cfg.Surface.Chrome.Headless)
	v.SetDefault("surface.chrome.exec_path", cfg.Surface.Chrome.ExecPath)
	v.SetDefault("surface.chrome.flags", cfg.Surface.Chrome.Flags)
	v.SetDefault("surface.chrome.action_timeout_seconds", cfg.Surface.Chrome.ActionTimeoutSeconds)
	v.SetDefault("bridge.queue_depth", cfg.Bridge.QueueDepth)
	v.SetDefault("bridge.dedupe_window", cfg.Bridge.DedupeWindow)
	v.SetDefault("tabs.zoom_step", cfg.Tabs.ZoomStep)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// isNotFound reports a missing config file. Viper returns
// ConfigFileNotFoundError for search paths and an fs error for an explicit
// SetConfigFile.
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

func validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Settings.Backend)) {
	case "file", "bolt":
	default:
		return fmt.Errorf("unsupported settings.backend %q", cfg.Settings.Backend)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Surface.Driver)) {
	case "headless", "chromedp":
	default:
		return fmt.Errorf("unsupported surface.driver %q", cfg.Surface.Driver)
	}
	if cfg.Surface.Chrome.ActionTimeoutSeconds < 0 {
		return fmt.Errorf("surface.chrome.action_timeout_seconds must not be negative")
	}
	if cfg.Bridge.QueueDepth < 0 || cfg.Bridge.DedupeWindow < 0 {
		return fmt.Errorf("bridge.queue_depth and bridge.dedupe_window must not be negative")
	}
	if cfg.Tabs.ZoomStep <= 0 || cfg.Tabs.ZoomStep > 1 {
		return fmt.Errorf("tabs.zoom_step must be in (0, 1], got %v", cfg.Tabs.ZoomStep)
	}
	if strings.TrimSpace(cfg.StateDir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Settings.Path = expandEnv(cfg.Settings.Path)
	cfg.Surface.Chrome.ExecPath = expandEnv(cfg.Surface.Chrome.ExecPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
