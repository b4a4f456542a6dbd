package surface

import (
	"context"
	"fmt"
	"sync"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/internal/logx"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// HeadlessState is a point-in-time view of a headless surface.
type HeadlessState struct {
	URL      string
	Title    string
	History  []string
	Index    int
	Zoom     float64
	Muted    bool
	Visible  bool
	DevTools bool
}

// HeadlessProvider creates in-memory surfaces that track navigation history
// and emit the same events a real page would.
type HeadlessProvider struct {
	mu       sync.Mutex
	emit     EventFunc
	log      pslog.Logger
	surfaces map[schema.TabID]*headlessSurface
	closed   bool
}

// NewHeadlessProvider constructs a headless provider.
func NewHeadlessProvider(onEvent EventFunc, logger pslog.Logger) *HeadlessProvider {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &HeadlessProvider{
		emit:     emitter(onEvent),
		log:      logger.With("surface", DriverHeadless),
		surfaces: make(map[schema.TabID]*headlessSurface),
	}
}

// Create implements core.SurfaceProvider.
func (p *HeadlessProvider) Create(ctx context.Context, id schema.TabID, url string) (core.Surface, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errSurfaceClosed
	}
	s := &headlessSurface{
		id:       id,
		zoom:     1.0,
		emit:     p.emit,
		log:      logx.WithTab(ctx, p.log, id),
		provider: p,
	}
	p.surfaces[id] = s
	p.mu.Unlock()
	if err := s.Load(ctx, url); err != nil {
		return nil, err
	}
	s.log.Debug("surface created")
	return s, nil
}

// Inspect returns the state of the surface bound to id.
func (p *HeadlessProvider) Inspect(id schema.TabID) (HeadlessState, bool) {
	p.mu.Lock()
	s := p.surfaces[id]
	p.mu.Unlock()
	if s == nil {
		return HeadlessState{}, false
	}
	return s.state(), true
}

// OpenWindow emits a new-surface request from the surface bound to id, as a
// page calling window.open would.
func (p *HeadlessProvider) OpenWindow(id schema.TabID, url string) error {
	p.mu.Lock()
	s := p.surfaces[id]
	p.mu.Unlock()
	if s == nil {
		return fmt.Errorf("%w: %d", schema.ErrTabNotFound, id)
	}
	s.emit(schema.SurfaceEvent{Type: schema.SurfaceNewRequested, TabID: id, URL: url})
	return nil
}

// Close releases every surface.
func (p *HeadlessProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, s := range p.surfaces {
		s.markClosed()
		delete(p.surfaces, id)
	}
	return nil
}

func (p *HeadlessProvider) forget(id schema.TabID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.surfaces, id)
}

type headlessSurface struct {
	id       schema.TabID
	emit     EventFunc
	log      pslog.Logger
	provider *HeadlessProvider

	mu       sync.Mutex
	history  []string
	index    int
	zoom     float64
	muted    bool
	visible  bool
	devTools bool
	closed   bool
}

func (s *headlessSurface) Load(_ context.Context, url string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSurfaceClosed
	}
	if len(s.history) > 0 {
		s.history = s.history[:s.index+1]
	}
	s.history = append(s.history, url)
	s.index = len(s.history) - 1
	s.mu.Unlock()
	s.committed(url)
	return nil
}

func (s *headlessSurface) Reload(context.Context) error {
	current, err := s.current()
	if err != nil {
		return err
	}
	s.committed(current)
	return nil
}

func (s *headlessSurface) GoBack(context.Context) error {
	return s.move(-1)
}

func (s *headlessSurface) GoForward(context.Context) error {
	return s.move(1)
}

func (s *headlessSurface) move(delta int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSurfaceClosed
	}
	target := s.index + delta
	if target < 0 || target >= len(s.history) {
		s.mu.Unlock()
		return nil
	}
	s.index = target
	url := s.history[target]
	s.mu.Unlock()
	s.committed(url)
	return nil
}

func (s *headlessSurface) Title(context.Context) (string, error) {
	current, err := s.current()
	if err != nil {
		return "", err
	}
	return titleFor(current), nil
}

func (s *headlessSurface) SetZoom(_ context.Context, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("invalid zoom factor %v", factor)
	}
	return s.update(func() { s.zoom = factor })
}

func (s *headlessSurface) SetMuted(_ context.Context, muted bool) error {
	return s.update(func() { s.muted = muted })
}

func (s *headlessSurface) Show(context.Context) error {
	return s.update(func() { s.visible = true })
}

func (s *headlessSurface) Hide(context.Context) error {
	return s.update(func() { s.visible = false })
}

// ToggleDevTools flips the dev tools flag. Headless surfaces have no
// inspector, so the state never carries a URL.
func (s *headlessSurface) ToggleDevTools(context.Context) (schema.DevToolsState, error) {
	var state schema.DevToolsState
	err := s.update(func() {
		s.devTools = !s.devTools
		state = schema.DevToolsState{TabID: s.id, Open: s.devTools}
	})
	return state, err
}

func (s *headlessSurface) Close() error {
	s.markClosed()
	s.provider.forget(s.id)
	s.log.Debug("surface destroyed")
	return nil
}

func (s *headlessSurface) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.visible = false
	s.mu.Unlock()
}

func (s *headlessSurface) update(apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSurfaceClosed
	}
	apply()
	return nil
}

func (s *headlessSurface) current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errSurfaceClosed
	}
	if len(s.history) == 0 {
		return "", nil
	}
	return s.history[s.index], nil
}

func (s *headlessSurface) committed(url string) {
	s.emit(schema.SurfaceEvent{Type: schema.SurfaceNavigationCommitted, TabID: s.id, URL: url})
	s.emit(schema.SurfaceEvent{Type: schema.SurfaceTitleAvailable, TabID: s.id, URL: url, Title: titleFor(url)})
}

func (s *headlessSurface) state() HeadlessState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := HeadlessState{
		History:  append([]string(nil), s.history...),
		Index:    s.index,
		Zoom:     s.zoom,
		Muted:    s.muted,
		Visible:  s.visible,
		DevTools: s.devTools,
	}
	if len(s.history) > 0 {
		state.URL = s.history[s.index]
		state.Title = titleFor(state.URL)
	}
	return state
}
