package schema

// TabSnapshot is a read-only view of tab state.
type TabSnapshot struct {
	ID         TabID   `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Active     bool    `json:"active"`
	ZoomFactor float64 `json:"zoom_factor"`
	Muted      bool    `json:"muted"`
	DevTools   bool    `json:"dev_tools"`
}

// ZoomIndicator is the zoom badge shown next to the address bar.
type ZoomIndicator struct {
	Visible bool   `json:"visible"`
	Label   string `json:"label,omitempty"`
}

// DevToolsState reports whether developer tools are open for a tab. The
// inspector URL is set when the surface exposes a remote inspector.
type DevToolsState struct {
	TabID        TabID  `json:"tab_id"`
	Open         bool   `json:"open"`
	InspectorURL string `json:"inspector_url,omitempty"`
}
