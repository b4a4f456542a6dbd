package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pkt.systems/nexus/schema"
)

type fakeSurface struct {
	mu       sync.Mutex
	id       schema.TabID
	url      string
	title    string
	zoom     float64
	muted    bool
	visible  bool
	closed   bool
	devTools bool
	calls    []string
	zoomErr  error
	closeErr error
	toolsErr error
}

func (s *fakeSurface) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *fakeSurface) Load(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("load " + url)
	s.url = url
	return nil
}

func (s *fakeSurface) Reload(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("reload")
	return nil
}

func (s *fakeSurface) GoBack(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("back")
	return nil
}

func (s *fakeSurface) GoForward(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("forward")
	return nil
}

func (s *fakeSurface) Title(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, nil
}

func (s *fakeSurface) SetZoom(_ context.Context, factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoomErr != nil {
		return s.zoomErr
	}
	s.zoom = factor
	return nil
}

func (s *fakeSurface) SetMuted(_ context.Context, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	return nil
}

func (s *fakeSurface) Show(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
	return nil
}

func (s *fakeSurface) Hide(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
	return nil
}

func (s *fakeSurface) ToggleDevTools(context.Context) (schema.DevToolsState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toolsErr != nil {
		return schema.DevToolsState{}, s.toolsErr
	}
	s.devTools = !s.devTools
	state := schema.DevToolsState{Open: s.devTools}
	if s.devTools {
		state.InspectorURL = "http://127.0.0.1:9222/devtools/inspector.html?ws=127.0.0.1:9222/devtools/page/" + s.id.String()
	}
	return state, nil
}

func (s *fakeSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

func (s *fakeSurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

type fakeProvider struct {
	mu       sync.Mutex
	surfaces map[schema.TabID]*fakeSurface
	fail     bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{surfaces: make(map[schema.TabID]*fakeSurface)}
}

func (p *fakeProvider) Create(_ context.Context, id schema.TabID, url string) (Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, errors.New("renderer gone")
	}
	surface := &fakeSurface{id: id, url: url, zoom: 1.0}
	p.surfaces[id] = surface
	return surface, nil
}

func (p *fakeProvider) Surface(id schema.TabID) *fakeSurface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surfaces[id]
}

type recordingSink struct {
	mu     sync.Mutex
	events []schema.TabEvent
}

func (s *recordingSink) OnTabEvent(event schema.TabEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Events() []schema.TabEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.TabEvent, len(s.events))
	copy(out, s.events)
	return out
}

func newTestManager(t *testing.T) (TabManager, *fakeProvider, *recordingSink) {
	t.Helper()
	provider := newFakeProvider()
	sink := &recordingSink{}
	mgr, err := NewTabManager(schema.TabsConfig{}, TabManagerDeps{
		SurfaceProvider: provider,
		EventSink:       sink,
	})
	if err != nil {
		t.Fatalf("new tab manager: %v", err)
	}
	return mgr, provider, sink
}

func mustAdd(t *testing.T, mgr TabManager, title, url string) schema.TabSnapshot {
	t.Helper()
	snap, err := mgr.Add(context.Background(), title, url)
	if err != nil {
		t.Fatalf("add tab %q: %v", url, err)
	}
	return snap
}

// assertSingleActive checks that exactly one tab is active when tabs exist.
func assertSingleActive(t *testing.T, mgr TabManager) {
	t.Helper()
	tabs := mgr.Tabs()
	active := 0
	for _, tab := range tabs {
		if tab.Active {
			active++
		}
	}
	if len(tabs) > 0 && active != 1 {
		t.Fatalf("expected exactly one active tab, got %d of %d", active, len(tabs))
	}
}
