package surface

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// Driver selects the rendering surface implementation.
type Driver string

const (
	// DriverHeadless keeps page state in memory without rendering.
	DriverHeadless Driver = "headless"
	// DriverChromedp drives a Chrome instance over the DevTools protocol.
	DriverChromedp Driver = "chromedp"
)

// EventFunc receives surface events. It is called from surface goroutines and
// must not block or call back into the tab manager synchronously.
type EventFunc func(event schema.SurfaceEvent)

// Provider is a SurfaceProvider that owns resources beyond its surfaces.
type Provider interface {
	core.SurfaceProvider
	Close() error
}

// Config selects and configures the surface driver.
type Config struct {
	Driver Driver
	Chrome ChromeConfig
}

var errSurfaceClosed = errors.New("surface closed")

// Open constructs the provider selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, onEvent EventFunc, logger pslog.Logger) (Provider, error) {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	switch Driver(strings.ToLower(strings.TrimSpace(string(cfg.Driver)))) {
	case "", DriverHeadless:
		return NewHeadlessProvider(onEvent, logger), nil
	case DriverChromedp:
		return NewChromeProvider(ctx, cfg.Chrome, onEvent, logger)
	default:
		return nil, fmt.Errorf("unknown surface driver %q", cfg.Driver)
	}
}

// titleFor derives a placeholder title from a url, the host when one parses.
func titleFor(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return raw
	}
	return parsed.Hostname()
}

func emitter(onEvent EventFunc) EventFunc {
	if onEvent == nil {
		return func(schema.SurfaceEvent) {}
	}
	return onEvent
}
