package core

import "pkt.systems/pslog"

// TabManagerDeps captures the dependencies of the tab manager.
type TabManagerDeps struct {
	// SurfaceProvider is required.
	SurfaceProvider SurfaceProvider
	EventSink       EventSink
	Logger          pslog.Logger
}
