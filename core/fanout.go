package core

import "pkt.systems/nexus/schema"

// Fanout forwards tab events to every non-nil sink in order.
type Fanout []EventSink

// OnTabEvent implements EventSink.
func (f Fanout) OnTabEvent(event schema.TabEvent) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		sink.OnTabEvent(event)
	}
}
