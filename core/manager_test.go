package core

import (
	"context"
	"errors"
	"testing"

	"pkt.systems/nexus/schema"
)

func TestAddActivatesNewTab(t *testing.T) {
	mgr, provider, sink := newTestManager(t)
	first := mustAdd(t, mgr, "Google", "https://google.com")
	second := mustAdd(t, mgr, "Example", "https://example.com")

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if !second.Active {
		t.Fatalf("expected new tab to be active")
	}
	assertSingleActive(t, mgr)
	active, ok := mgr.Active()
	if !ok || active.ID != second.ID {
		t.Fatalf("expected active tab %d, got %+v", second.ID, active)
	}
	if provider.Surface(first.ID).Visible() {
		t.Fatalf("expected first surface hidden")
	}
	if !provider.Surface(second.ID).Visible() {
		t.Fatalf("expected second surface shown")
	}
	events := sink.Events()
	if len(events) != 2 || events[1].Type != schema.TabEventCreated || events[1].ActiveTab != second.ID {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestTabIDsNeverReused(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()
	mustAdd(t, mgr, "a", "https://a.com")
	second := mustAdd(t, mgr, "b", "https://b.com")
	if closed, err := mgr.Close(ctx, second.ID); err != nil || !closed {
		t.Fatalf("close: closed=%v err=%v", closed, err)
	}
	third := mustAdd(t, mgr, "c", "https://c.com")
	if third.ID != 3 {
		t.Fatalf("expected id 3, got %d", third.ID)
	}
}

func TestAddSurfaceFailureConsumesID(t *testing.T) {
	mgr, provider, _ := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	provider.fail = true
	if _, err := mgr.Add(context.Background(), "b", "https://b.com"); !errors.Is(err, schema.ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable, got %v", err)
	}
	if got := len(mgr.Tabs()); got != 1 {
		t.Fatalf("expected 1 tab, got %d", got)
	}
	provider.fail = false
	next := mustAdd(t, mgr, "c", "https://c.com")
	if next.ID != 3 {
		t.Fatalf("expected id 3 after failed create, got %d", next.ID)
	}
}

func TestCloseActivatesNeighbor(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name       string
		activate   schema.TabID
		close      schema.TabID
		wantActive schema.TabID
	}{
		{name: "middle picks previous", activate: 2, close: 2, wantActive: 1},
		{name: "last picks previous", activate: 3, close: 3, wantActive: 2},
		{name: "first picks next", activate: 1, close: 1, wantActive: 2},
		{name: "inactive keeps active", activate: 3, close: 1, wantActive: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr, provider, _ := newTestManager(t)
			mustAdd(t, mgr, "a", "https://a.com")
			mustAdd(t, mgr, "b", "https://b.com")
			mustAdd(t, mgr, "c", "https://c.com")
			if err := mgr.Activate(ctx, tc.activate); err != nil {
				t.Fatalf("activate: %v", err)
			}
			closed, err := mgr.Close(ctx, tc.close)
			if err != nil || !closed {
				t.Fatalf("close: closed=%v err=%v", closed, err)
			}
			active, ok := mgr.Active()
			if !ok || active.ID != tc.wantActive {
				t.Fatalf("expected active %d, got %+v", tc.wantActive, active)
			}
			if _, ok := mgr.Get(tc.close); ok {
				t.Fatalf("expected tab %d removed", tc.close)
			}
			if !provider.Surface(tc.close).closed {
				t.Fatalf("expected surface %d destroyed", tc.close)
			}
			if !provider.Surface(tc.wantActive).Visible() {
				t.Fatalf("expected surface %d visible", tc.wantActive)
			}
			assertSingleActive(t, mgr)
		})
	}
}

func TestCloseActiveEmitsActivationBeforeRemoval(t *testing.T) {
	mgr, _, sink := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	second := mustAdd(t, mgr, "b", "https://b.com")
	before := len(sink.Events())

	closed, err := mgr.Close(context.Background(), second.ID)
	if err != nil || !closed {
		t.Fatalf("close: closed=%v err=%v", closed, err)
	}
	events := sink.Events()[before:]
	if len(events) != 2 {
		t.Fatalf("expected activated and closed events, got %+v", events)
	}
	if events[0].Type != schema.TabEventActivated || events[0].Tab.ID != 1 {
		t.Fatalf("expected neighbor activation first, got %+v", events[0])
	}
	if events[1].Type != schema.TabEventClosed || events[1].Tab.ID != second.ID {
		t.Fatalf("expected close second, got %+v", events[1])
	}
	for i, event := range events {
		if event.ActiveTab != 1 {
			t.Fatalf("event %d: expected active tab 1 throughout, got %d", i, event.ActiveTab)
		}
	}
}

func TestCloseLastTabRefused(t *testing.T) {
	mgr, provider, sink := newTestManager(t)
	only := mustAdd(t, mgr, "a", "https://a.com")
	before := len(sink.Events())
	closed, err := mgr.Close(context.Background(), only.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed {
		t.Fatalf("expected last tab close to be refused")
	}
	if len(mgr.Tabs()) != 1 || provider.Surface(only.ID).closed {
		t.Fatalf("expected last tab to survive")
	}
	if len(sink.Events()) != before {
		t.Fatalf("expected no events on refused close")
	}
}

func TestCloseUnknownTab(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	mustAdd(t, mgr, "b", "https://b.com")
	if _, err := mgr.Close(context.Background(), 42); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestCloseSurfaceDestroyFailureStillRemoves(t *testing.T) {
	mgr, provider, _ := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	second := mustAdd(t, mgr, "b", "https://b.com")
	provider.Surface(second.ID).closeErr = errors.New("already gone")
	closed, err := mgr.Close(context.Background(), second.ID)
	if err != nil || !closed {
		t.Fatalf("close: closed=%v err=%v", closed, err)
	}
	if len(mgr.Tabs()) != 1 {
		t.Fatalf("expected tab removed despite destroy failure")
	}
}

func TestActivateUnknownIsNoop(t *testing.T) {
	mgr, _, sink := newTestManager(t)
	first := mustAdd(t, mgr, "a", "https://a.com")
	before := len(sink.Events())
	if err := mgr.Activate(context.Background(), 99); err != nil {
		t.Fatalf("activate unknown: %v", err)
	}
	active, _ := mgr.Active()
	if active.ID != first.ID {
		t.Fatalf("expected active unchanged")
	}
	if len(sink.Events()) != before {
		t.Fatalf("expected no event for unknown activation")
	}
}

func TestNextPreviousStopAtBoundaries(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	mustAdd(t, mgr, "b", "https://b.com")
	mustAdd(t, mgr, "c", "https://c.com")

	if err := mgr.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if active, _ := mgr.Active(); active.ID != 3 {
		t.Fatalf("expected next at end to stay on 3, got %d", active.ID)
	}
	for _, want := range []schema.TabID{2, 1, 1} {
		if err := mgr.Previous(ctx); err != nil {
			t.Fatalf("previous: %v", err)
		}
		if active, _ := mgr.Active(); active.ID != want {
			t.Fatalf("expected active %d, got %d", want, active.ID)
		}
	}
	if err := mgr.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if active, _ := mgr.Active(); active.ID != 2 {
		t.Fatalf("expected active 2, got %d", active.ID)
	}
	assertSingleActive(t, mgr)
}

func TestZoomStepsAndIndicator(t *testing.T) {
	ctx := context.Background()
	mgr, provider, _ := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")

	if ind := mgr.ZoomIndicator(); ind.Visible {
		t.Fatalf("expected hidden indicator at 1.0, got %+v", ind)
	}
	for i := 0; i < 2; i++ {
		if err := mgr.SetZoom(ctx, 0.1); err != nil {
			t.Fatalf("zoom in: %v", err)
		}
	}
	snap, _ := mgr.Get(tab.ID)
	if snap.ZoomFactor != 1.2 {
		t.Fatalf("expected zoom 1.2, got %v", snap.ZoomFactor)
	}
	if provider.Surface(tab.ID).zoom != 1.2 {
		t.Fatalf("expected surface zoom 1.2, got %v", provider.Surface(tab.ID).zoom)
	}
	if ind := mgr.ZoomIndicator(); !ind.Visible || ind.Label != "120%" {
		t.Fatalf("unexpected indicator %+v", ind)
	}
	if err := mgr.ResetZoom(ctx); err != nil {
		t.Fatalf("reset zoom: %v", err)
	}
	snap, _ = mgr.Get(tab.ID)
	if snap.ZoomFactor != 1.0 || mgr.ZoomIndicator().Visible {
		t.Fatalf("expected reset to 1.0 with hidden indicator, got %v", snap.ZoomFactor)
	}
}

func TestZoomClampsToRange(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")
	for i := 0; i < 20; i++ {
		if err := mgr.SetZoom(ctx, -0.1); err != nil {
			t.Fatalf("zoom out: %v", err)
		}
	}
	snap, _ := mgr.Get(tab.ID)
	if snap.ZoomFactor != schema.DefaultMinZoom {
		t.Fatalf("expected zoom clamped to %v, got %v", schema.DefaultMinZoom, snap.ZoomFactor)
	}
	if err := mgr.SetZoom(ctx, 10); err != nil {
		t.Fatalf("zoom in: %v", err)
	}
	snap, _ = mgr.Get(tab.ID)
	if snap.ZoomFactor != schema.DefaultMaxZoom {
		t.Fatalf("expected zoom clamped to %v, got %v", schema.DefaultMaxZoom, snap.ZoomFactor)
	}
}

func TestZoomFailureLeavesStateUnchanged(t *testing.T) {
	mgr, provider, _ := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")
	provider.Surface(tab.ID).zoomErr = errors.New("no page")
	if err := mgr.SetZoom(context.Background(), 0.1); err == nil {
		t.Fatalf("expected zoom error")
	}
	snap, _ := mgr.Get(tab.ID)
	if snap.ZoomFactor != 1.0 {
		t.Fatalf("expected zoom unchanged, got %v", snap.ZoomFactor)
	}
}

func TestZoomIsPerTab(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)
	first := mustAdd(t, mgr, "a", "https://a.com")
	mustAdd(t, mgr, "b", "https://b.com")
	if err := mgr.SetZoom(ctx, 0.5); err != nil {
		t.Fatalf("zoom: %v", err)
	}
	if ind := mgr.ZoomIndicator(); ind.Label != "150%" {
		t.Fatalf("expected 150%%, got %+v", ind)
	}
	if err := mgr.Activate(ctx, first.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if ind := mgr.ZoomIndicator(); ind.Visible {
		t.Fatalf("expected hidden indicator for unzoomed tab, got %+v", ind)
	}
}

func TestToggleMute(t *testing.T) {
	ctx := context.Background()
	mgr, provider, _ := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")
	if err := mgr.ToggleMute(ctx); err != nil {
		t.Fatalf("mute: %v", err)
	}
	snap, _ := mgr.Get(tab.ID)
	if !snap.Muted || !provider.Surface(tab.ID).muted {
		t.Fatalf("expected muted tab and surface")
	}
	if err := mgr.ToggleMute(ctx); err != nil {
		t.Fatalf("unmute: %v", err)
	}
	snap, _ = mgr.Get(tab.ID)
	if snap.Muted {
		t.Fatalf("expected unmuted tab")
	}
}

func TestToggleDevTools(t *testing.T) {
	ctx := context.Background()
	mgr, provider, sink := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	tab := mustAdd(t, mgr, "b", "https://b.com")

	state, err := mgr.ToggleDevTools(ctx)
	if err != nil {
		t.Fatalf("open dev tools: %v", err)
	}
	if state.TabID != tab.ID || !state.Open || state.InspectorURL == "" {
		t.Fatalf("unexpected state %+v", state)
	}
	snap, _ := mgr.Get(tab.ID)
	if !snap.DevTools || !provider.Surface(tab.ID).devTools {
		t.Fatalf("expected dev tools open on tab and surface")
	}
	if other, _ := mgr.Get(1); other.DevTools {
		t.Fatalf("expected inactive tab untouched")
	}
	events := sink.Events()
	if last := events[len(events)-1]; last.Type != schema.TabEventUpdated || !last.Tab.DevTools {
		t.Fatalf("expected updated event with dev tools, got %+v", last)
	}

	state, err = mgr.ToggleDevTools(ctx)
	if err != nil {
		t.Fatalf("close dev tools: %v", err)
	}
	if state.Open || state.InspectorURL != "" {
		t.Fatalf("expected closed state, got %+v", state)
	}
	if snap, _ := mgr.Get(tab.ID); snap.DevTools {
		t.Fatalf("expected dev tools closed")
	}
}

func TestToggleDevToolsFailureLeavesStateUnchanged(t *testing.T) {
	mgr, provider, _ := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")
	provider.Surface(tab.ID).toolsErr = errors.New("inspector unavailable")
	if _, err := mgr.ToggleDevTools(context.Background()); err == nil {
		t.Fatalf("expected toggle error")
	}
	if snap, _ := mgr.Get(tab.ID); snap.DevTools {
		t.Fatalf("expected dev tools still closed")
	}
}

func TestLoadUpdatesURLAndSurface(t *testing.T) {
	mgr, provider, sink := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")
	if err := mgr.Load(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap, _ := mgr.Get(tab.ID)
	if snap.URL != "https://example.com" {
		t.Fatalf("expected url updated, got %q", snap.URL)
	}
	if provider.Surface(tab.ID).url != "https://example.com" {
		t.Fatalf("expected surface loaded")
	}
	events := sink.Events()
	if last := events[len(events)-1]; last.Type != schema.TabEventUpdated {
		t.Fatalf("expected updated event, got %+v", last)
	}
}

func TestGoBackRefreshesTitle(t *testing.T) {
	mgr, provider, _ := newTestManager(t)
	tab := mustAdd(t, mgr, "a", "https://a.com")
	provider.Surface(tab.ID).title = "Previous Page"
	if err := mgr.GoBack(context.Background()); err != nil {
		t.Fatalf("back: %v", err)
	}
	snap, _ := mgr.Get(tab.ID)
	if snap.Title != "Previous Page" {
		t.Fatalf("expected title refreshed, got %q", snap.Title)
	}
	provider.Surface(tab.ID).title = "Next Page"
	if err := mgr.GoForward(context.Background()); err != nil {
		t.Fatalf("forward: %v", err)
	}
	snap, _ = mgr.Get(tab.ID)
	if snap.Title != "Next Page" {
		t.Fatalf("expected title refreshed, got %q", snap.Title)
	}
}

func TestActiveOperationsWithoutTabs(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()
	toggleDevTools := func() error {
		_, err := mgr.ToggleDevTools(ctx)
		return err
	}
	ops := map[string]func() error{
		"zoom":     func() error { return mgr.SetZoom(ctx, 0.1) },
		"reload":   func() error { return mgr.Reload(ctx) },
		"title":    func() error { return mgr.SetActiveTitle(ctx, "x") },
		"next":     func() error { return mgr.Next(ctx) },
		"devtools": toggleDevTools,
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, schema.ErrNoActiveTab) {
			t.Fatalf("%s: expected ErrNoActiveTab, got %v", name, err)
		}
	}
}

func TestSetActiveURLAndTitle(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)
	first := mustAdd(t, mgr, "a", "https://a.com")
	mustAdd(t, mgr, "b", "https://b.com")
	if err := mgr.SetActiveURL(ctx, "https://b.com/next"); err != nil {
		t.Fatalf("set url: %v", err)
	}
	if err := mgr.SetActiveTitle(ctx, "Bee"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	active, _ := mgr.Active()
	if active.URL != "https://b.com/next" || active.Title != "Bee" {
		t.Fatalf("unexpected active tab %+v", active)
	}
	untouched, _ := mgr.Get(first.ID)
	if untouched.URL != "https://a.com" || untouched.Title != "a" {
		t.Fatalf("expected inactive tab untouched, got %+v", untouched)
	}
}

func TestSurfaceEventsUpdateEmittingTab(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)
	first := mustAdd(t, mgr, "a", "https://a.com")
	mustAdd(t, mgr, "b", "https://b.com")

	if err := mgr.HandleSurfaceEvent(ctx, schema.SurfaceEvent{
		Type:  schema.SurfaceNavigationCommitted,
		TabID: first.ID,
		URL:   "https://a.com/page",
	}); err != nil {
		t.Fatalf("navigation event: %v", err)
	}
	if err := mgr.HandleSurfaceEvent(ctx, schema.SurfaceEvent{
		Type:  schema.SurfaceTitleAvailable,
		TabID: first.ID,
		Title: "A Page",
	}); err != nil {
		t.Fatalf("title event: %v", err)
	}
	snap, _ := mgr.Get(first.ID)
	if snap.URL != "https://a.com/page" || snap.Title != "A Page" {
		t.Fatalf("expected background tab updated, got %+v", snap)
	}
	active, _ := mgr.Active()
	if active.URL != "https://b.com" || active.Title != "b" {
		t.Fatalf("expected active tab untouched, got %+v", active)
	}
}

func TestSurfaceEventNewSurfaceOpensTab(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	if err := mgr.HandleSurfaceEvent(ctx, schema.SurfaceEvent{
		Type:  schema.SurfaceNewRequested,
		TabID: 1,
		URL:   "https://popup.example.com",
	}); err != nil {
		t.Fatalf("new surface event: %v", err)
	}
	active, _ := mgr.Active()
	if active.ID != 2 || active.URL != "https://popup.example.com" || active.Title != "https://popup.example.com" {
		t.Fatalf("unexpected popup tab %+v", active)
	}
}

func TestSurfaceEventUnknownTabDropped(t *testing.T) {
	mgr, _, sink := newTestManager(t)
	mustAdd(t, mgr, "a", "https://a.com")
	before := len(sink.Events())
	if err := mgr.HandleSurfaceEvent(context.Background(), schema.SurfaceEvent{
		Type:  schema.SurfaceTitleAvailable,
		TabID: 77,
		Title: "ghost",
	}); err != nil {
		t.Fatalf("expected drop without error, got %v", err)
	}
	if len(sink.Events()) != before {
		t.Fatalf("expected no events for unknown tab")
	}
	if err := mgr.HandleSurfaceEvent(context.Background(), schema.SurfaceEvent{
		Type:   schema.SurfaceLoadFailed,
		TabID:  1,
		Reason: "net::ERR_NAME_NOT_RESOLVED",
	}); err != nil {
		t.Fatalf("load failed event: %v", err)
	}
}

func TestNewTabManagerRequiresProvider(t *testing.T) {
	if _, err := NewTabManager(schema.TabsConfig{}, TabManagerDeps{}); err == nil {
		t.Fatalf("expected error without surface provider")
	}
	if _, err := NewTabManager(schema.TabsConfig{MinZoom: 2}, TabManagerDeps{SurfaceProvider: newFakeProvider()}); err == nil {
		t.Fatalf("expected error for zoom range excluding 1.0")
	}
}

func TestFanoutSkipsNilSinks(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	fanout := Fanout{first, nil, second}
	fanout.OnTabEvent(schema.TabEvent{Type: schema.TabEventCreated})
	if len(first.Events()) != 1 || len(second.Events()) != 1 {
		t.Fatalf("expected both sinks to receive the event")
	}
}
