package hostbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"pkt.systems/nexus/internal/logx"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

const (
	// DefaultQueueDepth is the buffer size of each outbound subscriber.
	DefaultQueueDepth = 256
	// DefaultDedupeWindow is how many recent message ids are remembered.
	DefaultDedupeWindow = 1024
)

// Message is an inbound command or event.
type Message struct {
	ID      string          `json:"id"`
	Channel schema.Channel  `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", schema.ErrInvalidPayload, m.Channel, err)
	}
	return nil
}

// Notification is an outbound message fanned out to subscribers.
type Notification struct {
	Channel schema.Channel  `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes a single inbound message.
type Handler func(ctx context.Context, msg Message) error

// Config tunes the bridge.
type Config struct {
	QueueDepth   int
	DedupeWindow int
}

// Bridge carries inbound messages to a single consumer in send order and fans
// outbound notifications out to subscribers.
type Bridge struct {
	log    pslog.Logger
	depth  int
	window int

	mu      sync.Mutex
	queue   []Message
	signal  chan struct{}
	done    chan struct{}
	closed  bool
	serving bool
	seen    map[string]struct{}
	recent  []string
	next    int
	subs    map[chan Notification]map[schema.Channel]struct{}
}

// New constructs a Bridge.
func New(cfg Config, logger pslog.Logger) *Bridge {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = DefaultDedupeWindow
	}
	return &Bridge{
		log:    logger,
		depth:  cfg.QueueDepth,
		window: cfg.DedupeWindow,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		seen:   make(map[string]struct{}, cfg.DedupeWindow),
		recent: make([]string, cfg.DedupeWindow),
		subs:   make(map[chan Notification]map[schema.Channel]struct{}),
	}
}

// Send marshals payload into a new message and enqueues it.
func (b *Bridge) Send(ctx context.Context, channel schema.Channel, payload any) (string, error) {
	msg := Message{Channel: channel}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("%w: %v", schema.ErrInvalidPayload, err)
		}
		msg.Payload = raw
	}
	msg.ID = uuid.NewString()
	if err := b.Deliver(ctx, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Deliver enqueues a prebuilt message. Enqueueing never blocks; a message whose
// id was seen within the dedupe window is dropped.
func (b *Bridge) Deliver(ctx context.Context, msg Message) error {
	if msg.Channel == "" {
		return fmt.Errorf("%w: empty channel", schema.ErrUnknownChannel)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	log := logx.WithChannel(ctx, b.log, msg.Channel)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return schema.ErrBridgeClosed
	}
	if _, dup := b.seen[msg.ID]; dup {
		b.mu.Unlock()
		log.Debug("bridge duplicate dropped", "id", msg.ID)
		return nil
	}
	b.remember(msg.ID)
	b.queue = append(b.queue, msg)
	pending := len(b.queue)
	b.mu.Unlock()
	select {
	case b.signal <- struct{}{}:
	default:
	}
	log.Trace("bridge enqueued", "id", msg.ID, "pending", pending)
	return nil
}

// remember records id, evicting the oldest id once the window is full.
func (b *Bridge) remember(id string) {
	if old := b.recent[b.next]; old != "" {
		delete(b.seen, old)
	}
	b.recent[b.next] = id
	b.seen[id] = struct{}{}
	b.next = (b.next + 1) % b.window
}

// Serve runs handler for each inbound message, one at a time in enqueue order.
// Handler errors are logged and Serve continues. Serve returns ctx.Err() when
// ctx ends and nil after Close.
func (b *Bridge) Serve(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("bridge handler is required")
	}
	b.mu.Lock()
	if b.serving {
		b.mu.Unlock()
		return errors.New("bridge already has a consumer")
	}
	if b.closed {
		b.mu.Unlock()
		return schema.ErrBridgeClosed
	}
	b.serving = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.serving = false
		b.mu.Unlock()
	}()
	b.log.Debug("bridge serving")
	for {
		msg, ok := b.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-b.done:
				return nil
			case <-b.signal:
				continue
			}
		}
		b.dispatch(ctx, handler, msg)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		default:
		}
	}
}

func (b *Bridge) pop() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Message{}, false
	}
	msg := b.queue[0]
	b.queue[0] = Message{}
	b.queue = b.queue[1:]
	return msg, true
}

func (b *Bridge) dispatch(ctx context.Context, handler Handler, msg Message) {
	log := logx.WithChannel(ctx, b.log, msg.Channel)
	msgCtx := pslog.ContextWithLogger(ctx, log)
	if err := handler(msgCtx, msg); err != nil {
		log.Warn("bridge handler failed", "id", msg.ID, "err", err)
		return
	}
	log.Trace("bridge handled", "id", msg.ID)
}

// Publish fans payload out to subscribers of channel. Subscribers that are
// full miss the notification.
func (b *Bridge) Publish(channel schema.Channel, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrInvalidPayload, err)
	}
	note := Notification{Channel: channel, Payload: raw}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return schema.ErrBridgeClosed
	}
	delivered, dropped := 0, 0
	for sub, channels := range b.subs {
		if len(channels) > 0 {
			if _, ok := channels[channel]; !ok {
				continue
			}
		}
		select {
		case sub <- note:
			delivered++
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	log := b.log.With("channel", channel)
	if dropped > 0 {
		log.Trace("bridge notification dropped", "count", dropped)
	}
	log.Trace("bridge published", "subs", delivered)
	return nil
}

// Subscribe registers for notifications on channels, or on every channel when
// none are given. The returned func unsubscribes and closes the channel.
func (b *Bridge) Subscribe(channels ...schema.Channel) (<-chan Notification, func()) {
	ch := make(chan Notification, b.depth)
	filter := make(map[schema.Channel]struct{}, len(channels))
	for _, channel := range channels {
		filter[channel] = struct{}{}
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = filter
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("bridge subscribe", "channels", len(channels), "subs", count)
	return ch, func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
}

// Pending reports how many inbound messages wait for the consumer.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close stops accepting messages, ends Serve and closes every subscriber.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub)
	}
	dropped := len(b.queue)
	b.queue = nil
	b.mu.Unlock()
	b.log.Debug("bridge closed", "dropped", dropped)
	return nil
}
