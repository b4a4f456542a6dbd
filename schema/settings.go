package schema

import (
	"fmt"
	"strings"
)

// Settings is the persisted user preference document.
type Settings struct {
	Engine   EngineName `json:"engine"`
	Homepage string     `json:"homepage"`
}

// DefaultSettings returns the built-in settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{Engine: DefaultEngine}
}

// Validate reports whether the document names a supported engine.
func (s Settings) Validate() error {
	if _, ok := LookupEngine(s.Engine); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEngine, s.Engine)
	}
	return nil
}

// HomeURL returns the homepage override, or the engine home when none is set.
func (s Settings) HomeURL() string {
	if home := strings.TrimSpace(s.Homepage); home != "" {
		return home
	}
	return s.engine().Home
}

// HomeTitle is the placeholder title for tabs opened on the homepage.
func (s Settings) HomeTitle() string {
	return s.engine().Title
}

func (s Settings) engine() Engine {
	if engine, ok := LookupEngine(s.Engine); ok {
		return engine
	}
	engine, _ := LookupEngine(DefaultEngine)
	return engine
}

// SettingsRequest is the payload of the save-settings and edit-settings commands.
type SettingsRequest struct {
	Engine   string `json:"engine"`
	Homepage string `json:"homepage"`
}

// SettingsNotification is the payload of the browser-settings notification.
// A nil Settings means nothing has been persisted yet.
type SettingsNotification struct {
	Settings *Settings `json:"settings"`
}
