package schema

// TabEventType describes tab lifecycle or state changes.
type TabEventType string

const (
	// TabEventCreated indicates a tab was created.
	TabEventCreated TabEventType = "created"
	// TabEventClosed indicates a tab was closed.
	TabEventClosed TabEventType = "closed"
	// TabEventActivated indicates a tab became active.
	TabEventActivated TabEventType = "activated"
	// TabEventUpdated indicates tab state such as title, url or zoom changed.
	TabEventUpdated TabEventType = "updated"
)

// TabEvent represents a change to a tab or tab list.
type TabEvent struct {
	Type      TabEventType  `json:"type"`
	Tab       TabSnapshot   `json:"tab"`
	ActiveTab TabID         `json:"active_tab"`
	Zoom      ZoomIndicator `json:"zoom"`
}

// NewSurfaceNotification is the payload of the new-surface-requested notification.
type NewSurfaceNotification struct {
	URL string `json:"url"`
}

// NavigationRejectedNotification reports input that could not be navigated to.
type NavigationRejectedNotification struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}
