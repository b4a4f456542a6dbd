package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pkt.systems/nexus/internal/logx"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// manager implements TabManager.
type manager struct {
	cfg      schema.TabsConfig
	surfaces SurfaceProvider
	sink     EventSink
	logger   pslog.Logger

	mu       sync.Mutex
	lastID   schema.TabID
	tabs     map[schema.TabID]*tab
	order    []schema.TabID
	bindings map[schema.TabID]Surface
	zoom     schema.ZoomIndicator
}

// NewTabManager constructs an empty tab manager.
func NewTabManager(cfg schema.TabsConfig, deps TabManagerDeps) (TabManager, error) {
	normalized, err := schema.NormalizeTabsConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.SurfaceProvider == nil {
		return nil, errors.New("surface provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &manager{
		cfg:      normalized,
		surfaces: deps.SurfaceProvider,
		sink:     deps.EventSink,
		logger:   logger,
		tabs:     make(map[schema.TabID]*tab),
		bindings: make(map[schema.TabID]Surface),
	}, nil
}

func (m *manager) Add(ctx context.Context, title, url string) (schema.TabSnapshot, error) {
	m.mu.Lock()
	m.lastID++
	id := m.lastID
	log := logx.WithURL(logx.WithTab(ctx, m.logger, id), url)
	surface, err := m.surfaces.Create(ctx, id, url)
	if err != nil {
		m.mu.Unlock()
		log.Error("tab create failed", "err", err)
		return schema.TabSnapshot{}, fmt.Errorf("%w: %v", schema.ErrSurfaceUnavailable, err)
	}
	t := newTab(id, title, url)
	m.tabs[id] = t
	m.order = append(m.order, id)
	m.bindings[id] = surface
	activateErr := m.activateLocked(ctx, log, t)
	events := []schema.TabEvent{m.eventLocked(schema.TabEventCreated, t)}
	snapshot := t.Snapshot()
	m.mu.Unlock()
	m.emit(events...)
	log.Info("tab created", "title", title, "tabs", len(m.order))
	return snapshot, activateErr
}

func (m *manager) Activate(ctx context.Context, id schema.TabID) error {
	log := logx.WithTab(ctx, m.logger, id)
	m.mu.Lock()
	t := m.tabs[id]
	if t == nil {
		m.mu.Unlock()
		log.Debug("tab activate ignored", "reason", "unknown tab")
		return nil
	}
	if t.Active {
		m.mu.Unlock()
		log.Trace("tab activate ignored", "reason", "already active")
		return nil
	}
	err := m.activateLocked(ctx, log, t)
	event := m.eventLocked(schema.TabEventActivated, t)
	m.mu.Unlock()
	m.emit(event)
	log.Info("tab activated")
	return err
}

func (m *manager) Close(ctx context.Context, id schema.TabID) (bool, error) {
	log := logx.WithTab(ctx, m.logger, id)
	m.mu.Lock()
	t := m.tabs[id]
	if t == nil {
		m.mu.Unlock()
		log.Warn("tab close failed", "err", schema.ErrTabNotFound)
		return false, schema.ErrTabNotFound
	}
	if len(m.order) <= 1 {
		m.mu.Unlock()
		log.Info("tab close refused", "reason", "last open tab")
		return false, nil
	}
	var events []schema.TabEvent
	var activateErr error
	if t.Active {
		idx := indexOf(m.order, id)
		neighborID := m.order[1]
		if idx > 0 {
			neighborID = m.order[idx-1]
		}
		neighbor := m.tabs[neighborID]
		activateErr = m.activateLocked(ctx, logx.WithTab(ctx, m.logger, neighborID), neighbor)
		events = append(events, m.eventLocked(schema.TabEventActivated, neighbor))
	}
	m.order = removeTabID(m.order, id)
	delete(m.tabs, id)
	surface := m.bindings[id]
	delete(m.bindings, id)
	if surface != nil {
		if err := surface.Close(); err != nil {
			log.Warn("surface destroy failed", "err", err)
		}
	}
	events = append(events, m.eventLocked(schema.TabEventClosed, t))
	remaining := len(m.order)
	m.mu.Unlock()
	m.emit(events...)
	log.Info("tab closed", "tabs", remaining)
	return true, activateErr
}

func (m *manager) Next(ctx context.Context) error {
	return m.step(ctx, 1)
}

func (m *manager) Previous(ctx context.Context) error {
	return m.step(ctx, -1)
}

func (m *manager) step(ctx context.Context, delta int) error {
	m.mu.Lock()
	current := m.activeLocked()
	if current == nil {
		m.mu.Unlock()
		return m.noActiveTab(ctx, "tab step")
	}
	target := indexOf(m.order, current.ID) + delta
	if target < 0 || target >= len(m.order) {
		m.mu.Unlock()
		logx.WithTab(ctx, m.logger, current.ID).Trace("tab step ignored", "reason", "at boundary", "delta", delta)
		return nil
	}
	t := m.tabs[m.order[target]]
	log := logx.WithTab(ctx, m.logger, t.ID)
	err := m.activateLocked(ctx, log, t)
	event := m.eventLocked(schema.TabEventActivated, t)
	m.mu.Unlock()
	m.emit(event)
	log.Info("tab activated", "delta", delta)
	return err
}

func (m *manager) SetActiveURL(ctx context.Context, url string) error {
	return m.updateActive(ctx, "tab url update", func(t *tab) { t.URL = url })
}

func (m *manager) SetActiveTitle(ctx context.Context, title string) error {
	return m.updateActive(ctx, "tab title update", func(t *tab) { t.Title = title })
}

func (m *manager) updateActive(ctx context.Context, op string, apply func(t *tab)) error {
	m.mu.Lock()
	t := m.activeLocked()
	if t == nil {
		m.mu.Unlock()
		return m.noActiveTab(ctx, op)
	}
	apply(t)
	event := m.eventLocked(schema.TabEventUpdated, t)
	m.mu.Unlock()
	m.emit(event)
	logx.WithTab(ctx, m.logger, t.ID).Debug(op, "title", event.Tab.Title, "url", event.Tab.URL)
	return nil
}

func (m *manager) SetZoom(ctx context.Context, delta float64) error {
	return m.withActiveSurface(ctx, "tab zoom", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		factor := nextZoom(t.ZoomFactor, delta, m.cfg.MinZoom, m.cfg.MaxZoom)
		if err := surface.SetZoom(ctx, factor); err != nil {
			return false, err
		}
		t.ZoomFactor = factor
		m.zoom = zoomIndicator(factor)
		log.Debug("tab zoom set", "zoom", factor)
		return true, nil
	})
}

func (m *manager) ResetZoom(ctx context.Context) error {
	return m.withActiveSurface(ctx, "tab zoom reset", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		if err := surface.SetZoom(ctx, 1.0); err != nil {
			return false, err
		}
		t.ZoomFactor = 1.0
		m.zoom = zoomIndicator(1.0)
		log.Debug("tab zoom reset")
		return true, nil
	})
}

func (m *manager) ToggleMute(ctx context.Context) error {
	return m.withActiveSurface(ctx, "tab mute toggle", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		muted := !t.Muted
		if err := surface.SetMuted(ctx, muted); err != nil {
			return false, err
		}
		t.Muted = muted
		log.Debug("tab mute set", "muted", muted)
		return true, nil
	})
}

func (m *manager) ToggleDevTools(ctx context.Context) (schema.DevToolsState, error) {
	var state schema.DevToolsState
	err := m.withActiveSurface(ctx, "tab dev tools toggle", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		next, err := surface.ToggleDevTools(ctx)
		if err != nil {
			return false, err
		}
		next.TabID = t.ID
		t.DevTools = next.Open
		state = next
		log.Debug("tab dev tools set", "open", next.Open, "inspector", next.InspectorURL)
		return true, nil
	})
	return state, err
}

func (m *manager) Load(ctx context.Context, url string) error {
	return m.withActiveSurface(ctx, "tab load", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		t.URL = url
		if err := surface.Load(ctx, url); err != nil {
			return true, err
		}
		logx.WithURL(log, url).Info("tab load")
		return true, nil
	})
}

func (m *manager) Reload(ctx context.Context) error {
	return m.withActiveSurface(ctx, "tab reload", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		if err := surface.Reload(ctx); err != nil {
			return false, err
		}
		log.Debug("tab reload")
		return false, nil
	})
}

func (m *manager) GoBack(ctx context.Context) error {
	return m.withActiveSurface(ctx, "tab back", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		if err := surface.GoBack(ctx); err != nil {
			return false, err
		}
		return m.refreshTitleLocked(ctx, log, t, surface), nil
	})
}

func (m *manager) GoForward(ctx context.Context) error {
	return m.withActiveSurface(ctx, "tab forward", func(log pslog.Logger, t *tab, surface Surface) (bool, error) {
		if err := surface.GoForward(ctx); err != nil {
			return false, err
		}
		return m.refreshTitleLocked(ctx, log, t, surface), nil
	})
}

func (m *manager) refreshTitleLocked(ctx context.Context, log pslog.Logger, t *tab, surface Surface) bool {
	title, err := surface.Title(ctx)
	if err != nil {
		log.Warn("surface title unavailable", "err", err)
		return false
	}
	t.Title = title
	return true
}

// withActiveSurface runs fn against the active tab and its bound surface.
// fn reports whether the tab changed so an update event is emitted.
func (m *manager) withActiveSurface(ctx context.Context, op string, fn func(log pslog.Logger, t *tab, surface Surface) (bool, error)) error {
	m.mu.Lock()
	t := m.activeLocked()
	if t == nil {
		m.mu.Unlock()
		return m.noActiveTab(ctx, op)
	}
	log := logx.WithTab(ctx, m.logger, t.ID)
	surface := m.bindings[t.ID]
	if surface == nil {
		m.mu.Unlock()
		log.Error(op+" aborted", "err", schema.ErrSurfaceUnavailable)
		return schema.ErrSurfaceUnavailable
	}
	changed, err := fn(log, t, surface)
	var event schema.TabEvent
	if changed {
		event = m.eventLocked(schema.TabEventUpdated, t)
	}
	m.mu.Unlock()
	if changed {
		m.emit(event)
	}
	if err != nil {
		log.Warn(op+" failed", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *manager) HandleSurfaceEvent(ctx context.Context, event schema.SurfaceEvent) error {
	log := logx.WithURL(logx.WithTab(ctx, m.logger, event.TabID), event.URL)
	switch event.Type {
	case schema.SurfaceNavigationCommitted, schema.SurfaceTitleAvailable:
		m.mu.Lock()
		t := m.tabs[event.TabID]
		if t == nil {
			m.mu.Unlock()
			log.Debug("surface event dropped", "type", event.Type, "reason", "unknown tab")
			return nil
		}
		if event.Type == schema.SurfaceNavigationCommitted {
			t.URL = event.URL
		} else {
			t.Title = event.Title
		}
		update := m.eventLocked(schema.TabEventUpdated, t)
		m.mu.Unlock()
		m.emit(update)
		log.Debug("surface event applied", "type", event.Type, "title", event.Title)
		return nil
	case schema.SurfaceLoadFailed:
		log.Warn("surface load failed", "reason", event.Reason)
		return nil
	case schema.SurfaceNewRequested:
		if event.URL == "" {
			log.Warn("surface new context ignored", "reason", "empty url")
			return nil
		}
		_, err := m.Add(ctx, event.URL, event.URL)
		return err
	default:
		log.Warn("surface event unknown", "type", event.Type)
		return fmt.Errorf("%w: surface event %q", schema.ErrInvalidPayload, event.Type)
	}
}

func (m *manager) Tabs() []schema.TabSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.TabSnapshot, 0, len(m.order))
	for _, id := range m.order {
		if t := m.tabs[id]; t != nil {
			out = append(out, t.Snapshot())
		}
	}
	return out
}

func (m *manager) Active() (schema.TabSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t := m.activeLocked(); t != nil {
		return t.Snapshot(), true
	}
	return schema.TabSnapshot{}, false
}

func (m *manager) Get(id schema.TabID) (schema.TabSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t := m.tabs[id]; t != nil {
		return t.Snapshot(), true
	}
	return schema.TabSnapshot{}, false
}

func (m *manager) ZoomIndicator() schema.ZoomIndicator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// activateLocked marks target as the only active tab, then hides every other
// surface, shows the target and applies its zoom.
func (m *manager) activateLocked(ctx context.Context, log pslog.Logger, target *tab) error {
	for _, id := range m.order {
		if t := m.tabs[id]; t != nil {
			t.Active = t == target
		}
	}
	m.zoom = zoomIndicator(target.ZoomFactor)
	for _, id := range m.order {
		if id == target.ID {
			continue
		}
		if surface := m.bindings[id]; surface != nil {
			if err := surface.Hide(ctx); err != nil {
				logx.WithTab(ctx, m.logger, id).Warn("surface hide failed", "err", err)
			}
		}
	}
	surface := m.bindings[target.ID]
	if surface == nil {
		log.Error("tab activate incomplete", "err", schema.ErrSurfaceUnavailable)
		return schema.ErrSurfaceUnavailable
	}
	if err := surface.Show(ctx); err != nil {
		log.Warn("surface show failed", "err", err)
	}
	if err := surface.SetZoom(ctx, target.ZoomFactor); err != nil {
		log.Warn("surface zoom failed", "err", err, "zoom", target.ZoomFactor)
	}
	return nil
}

func (m *manager) activeLocked() *tab {
	for _, id := range m.order {
		if t := m.tabs[id]; t != nil && t.Active {
			return t
		}
	}
	return nil
}

func (m *manager) eventLocked(kind schema.TabEventType, t *tab) schema.TabEvent {
	event := schema.TabEvent{
		Type: kind,
		Tab:  t.Snapshot(),
		Zoom: m.zoom,
	}
	if active := m.activeLocked(); active != nil {
		event.ActiveTab = active.ID
	}
	return event
}

// noActiveTab reports an invariant violation: with at least one open tab
// something must be active.
func (m *manager) noActiveTab(ctx context.Context, op string) error {
	logx.Or(ctx, m.logger).Error(op+" failed", "err", schema.ErrNoActiveTab)
	return schema.ErrNoActiveTab
}

func (m *manager) emit(events ...schema.TabEvent) {
	if m.sink == nil {
		return
	}
	for _, event := range events {
		m.sink.OnTabEvent(event)
	}
}

func indexOf(order []schema.TabID, id schema.TabID) int {
	for i, value := range order {
		if value == id {
			return i
		}
	}
	return -1
}

func removeTabID(order []schema.TabID, id schema.TabID) []schema.TabID {
	out := order[:0]
	for _, value := range order {
		if value != id {
			out = append(out, value)
		}
	}
	return out
}
