package core

import (
	"context"

	"pkt.systems/nexus/schema"
)

// Surface is the rendering surface bound to a single tab.
type Surface interface {
	Load(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	SetZoom(ctx context.Context, factor float64) error
	SetMuted(ctx context.Context, muted bool) error
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
	// ToggleDevTools opens developer tools when closed and closes them when
	// open. The returned state carries the inspector URL when one exists.
	ToggleDevTools(ctx context.Context) (schema.DevToolsState, error)
	Close() error
}

// SurfaceProvider creates rendering surfaces for new tabs.
type SurfaceProvider interface {
	Create(ctx context.Context, id schema.TabID, url string) (Surface, error)
}
