package core

import "pkt.systems/nexus/schema"

// EventSink receives tab events from the tab manager.
type EventSink interface {
	OnTabEvent(event schema.TabEvent)
}
