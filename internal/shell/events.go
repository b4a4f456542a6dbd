package shell

import (
	"context"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/internal/hostbridge"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// Sender enqueues inbound bridge messages.
type Sender interface {
	Send(ctx context.Context, channel schema.Channel, payload any) (string, error)
}

type tabEventSink struct {
	pub Publisher
	log pslog.Logger
}

// TabEvents returns an EventSink that publishes tab events on the tab-event
// channel.
func TabEvents(pub Publisher, logger pslog.Logger) core.EventSink {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return tabEventSink{pub: pub, log: logger}
}

func (s tabEventSink) OnTabEvent(event schema.TabEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(schema.ChannelTabEvent, event); err != nil {
		s.log.Debug("tab event publish failed", "type", event.Type, "err", err)
	}
}

type tabLogSink struct {
	log pslog.Logger
}

// TabLog returns an EventSink that records each tab event at debug level.
func TabLog(logger pslog.Logger) core.EventSink {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return tabLogSink{log: logger}
}

func (s tabLogSink) OnTabEvent(event schema.TabEvent) {
	s.log.Debug("tab event",
		"type", event.Type,
		"tab", int64(event.Tab.ID),
		"active", int64(event.ActiveTab),
		"url", event.Tab.URL,
	)
}

// SurfaceEvents returns a callback that feeds surface events back through the
// bridge so they are applied on the dispatch loop.
func SurfaceEvents(ctx context.Context, sender Sender, logger pslog.Logger) func(schema.SurfaceEvent) {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	return func(event schema.SurfaceEvent) {
		if _, err := sender.Send(ctx, schema.ChannelSurfaceEvent, event); err != nil {
			logger.Debug("surface event dropped", "type", event.Type, "tab", int64(event.TabID), "err", err)
		}
	}
}

var _ Sender = (*hostbridge.Bridge)(nil)
var _ Publisher = (*hostbridge.Bridge)(nil)
