package schema

// Inbound command channels.
const (
	ChannelNewTab         Channel = "new-tab"
	ChannelCloseTab       Channel = "close-tab"
	ChannelReloadTab      Channel = "reload-tab"
	ChannelGoBack         Channel = "go-back"
	ChannelGoForward      Channel = "go-forward"
	ChannelNextTab        Channel = "next-tab"
	ChannelPreviousTab    Channel = "previous-tab"
	ChannelZoomIn         Channel = "zoom-in"
	ChannelZoomOut        Channel = "zoom-out"
	ChannelZoomReset      Channel = "zoom-reset"
	ChannelToggleMute     Channel = "toggle-mute"
	ChannelNavigate       Channel = "navigate"
	ChannelActivateTab    Channel = "activate-tab"
	ChannelOpenSettings   Channel = "open-settings"
	ChannelEditSettings   Channel = "edit-settings"
	ChannelSaveSettings   Channel = "save-settings"
	ChannelCancelSettings Channel = "cancel-settings"
	ChannelDevTools       Channel = "dev-tools"
	ChannelSurfaceEvent   Channel = "surface-event"
)

// Outbound notification channels.
const (
	ChannelBrowserSettings     Channel = "browser-settings"
	ChannelNewSurfaceRequested Channel = "new-surface-requested"
	ChannelNavigationRejected  Channel = "navigation-rejected"
	ChannelTabEvent            Channel = "tab-event"
	ChannelDevToolsState       Channel = "dev-tools-state"
)

// NavigateRequest is the payload of the navigate command.
type NavigateRequest struct {
	Input string `json:"input"`
}

// ActivateTabRequest is the payload of the activate-tab command.
type ActivateTabRequest struct {
	ID TabID `json:"id"`
}
