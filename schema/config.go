package schema

import "errors"

// TabsConfig bounds the zoom factor a tab can reach.
type TabsConfig struct {
	MinZoom float64
	MaxZoom float64
}

const (
	// DefaultZoomStep is a 10% zoom change.
	DefaultZoomStep = 0.1
	// DefaultMinZoom is the smallest zoom factor a tab can reach.
	DefaultMinZoom = 0.1
	// DefaultMaxZoom is the largest zoom factor a tab can reach.
	DefaultMaxZoom = 5.0
)

// NormalizeTabsConfig applies defaults and validates the config.
func NormalizeTabsConfig(cfg TabsConfig) (TabsConfig, error) {
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = DefaultMinZoom
	}
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = DefaultMaxZoom
	}
	if cfg.MinZoom > 1 || cfg.MaxZoom < 1 {
		return TabsConfig{}, errors.New("zoom range must include 1.0")
	}
	return cfg, nil
}
