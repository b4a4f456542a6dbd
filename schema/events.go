package schema

// SurfaceEventType names the events a rendering surface emits.
type SurfaceEventType string

const (
	// SurfaceNavigationCommitted reports the surface committed a navigation to URL.
	SurfaceNavigationCommitted SurfaceEventType = "navigation-committed"
	// SurfaceTitleAvailable reports the document title is known.
	SurfaceTitleAvailable SurfaceEventType = "title-available"
	// SurfaceLoadFailed reports a main document load failed.
	SurfaceLoadFailed SurfaceEventType = "load-failed"
	// SurfaceNewRequested reports content asked to open URL in a new context.
	SurfaceNewRequested SurfaceEventType = "new-surface-requested"
)

// SurfaceEvent is emitted by the rendering surface bound to TabID.
type SurfaceEvent struct {
	Type   SurfaceEventType `json:"type"`
	TabID  TabID            `json:"tab_id"`
	URL    string           `json:"url,omitempty"`
	Title  string           `json:"title,omitempty"`
	Reason string           `json:"reason,omitempty"`
}
