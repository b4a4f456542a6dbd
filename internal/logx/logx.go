package logx

import (
	"context"

	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// Or returns log, or the context logger when log is nil.
func Or(ctx context.Context, log pslog.Logger) pslog.Logger {
	if log != nil {
		return log
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return pslog.Ctx(ctx)
}

// WithTab annotates the logger with the tab id.
func WithTab(ctx context.Context, log pslog.Logger, tabID schema.TabID) pslog.Logger {
	log = Or(ctx, log)
	if tabID == 0 {
		return log
	}
	return log.With("tab", int64(tabID))
}

// WithChannel annotates the logger with a bridge channel name.
func WithChannel(ctx context.Context, log pslog.Logger, channel schema.Channel) pslog.Logger {
	log = Or(ctx, log)
	if channel == "" {
		return log
	}
	return log.With("channel", channel)
}

// WithURL annotates the logger with a url when present.
func WithURL(log pslog.Logger, url string) pslog.Logger {
	if url != "" {
		log = log.With("url", url)
	}
	return log
}
