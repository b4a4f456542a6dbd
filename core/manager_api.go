package core

import (
	"context"

	"pkt.systems/nexus/schema"
)

// TabManager owns the ordered tab collection and keeps exactly one tab active
// whenever the collection is non-empty.
type TabManager interface {
	Add(ctx context.Context, title, url string) (schema.TabSnapshot, error)
	Activate(ctx context.Context, id schema.TabID) error
	Close(ctx context.Context, id schema.TabID) (bool, error)
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	SetActiveURL(ctx context.Context, url string) error
	SetActiveTitle(ctx context.Context, title string) error
	SetZoom(ctx context.Context, delta float64) error
	ResetZoom(ctx context.Context) error
	ToggleMute(ctx context.Context) error
	ToggleDevTools(ctx context.Context) (schema.DevToolsState, error)

	Load(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error

	HandleSurfaceEvent(ctx context.Context, event schema.SurfaceEvent) error

	Tabs() []schema.TabSnapshot
	Active() (schema.TabSnapshot, bool)
	Get(id schema.TabID) (schema.TabSnapshot, bool)
	ZoomIndicator() schema.ZoomIndicator
}
