package schema

import "errors"

var (
	// ErrEmptyInput indicates navigation input was empty after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidAddress indicates input looked like an address but failed strict parsing.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrUnknownEngine indicates a search engine name outside the supported set.
	ErrUnknownEngine = errors.New("unknown search engine")
	// ErrSettingsCorrupt indicates a settings document exists but cannot be decoded.
	ErrSettingsCorrupt = errors.New("settings document is corrupt")
	// ErrNoActiveTab indicates an operation needed an active tab and none was found.
	ErrNoActiveTab = errors.New("no active tab")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrSurfaceUnavailable indicates the rendering surface for a tab is missing.
	ErrSurfaceUnavailable = errors.New("rendering surface unavailable")
	// ErrUnknownChannel indicates a bridge message on a channel nobody handles.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrInvalidPayload indicates a bridge message payload could not be decoded.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrBridgeClosed indicates the host bridge no longer accepts messages.
	ErrBridgeClosed = errors.New("bridge closed")
)
