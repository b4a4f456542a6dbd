package surface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/internal/logx"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// DefaultActionTimeout bounds a single DevTools round trip.
const DefaultActionTimeout = 30 * time.Second

// muteScript toggles every media element on the page.
const muteScript = `(() => {
	const muted = %t;
	document.querySelectorAll('audio, video').forEach((el) => { el.muted = muted; });
	return muted;
})()`

// ChromeConfig configures the Chrome allocator.
type ChromeConfig struct {
	Headless bool
	// ExecPath overrides Chrome discovery when set.
	ExecPath string
	// Flags are extra command line switches, "name" or "name=value".
	Flags         []string
	ActionTimeout time.Duration
}

// ChromeProvider binds each tab to its own Chrome target.
type ChromeProvider struct {
	cfg  ChromeConfig
	emit EventFunc
	log  pslog.Logger

	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	endpoint      *devtoolsEndpoint

	mu       sync.Mutex
	surfaces map[schema.TabID]*chromeSurface
	closed   bool
}

// NewChromeProvider starts Chrome and returns a provider bound to it.
func NewChromeProvider(ctx context.Context, cfg ChromeConfig, onEvent EventFunc, logger pslog.Logger) (*ChromeProvider, error) {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = DefaultActionTimeout
	}
	log := logger.With("surface", DriverChromedp)
	endpoint := &devtoolsEndpoint{}
	opts := append(allocatorOptions(cfg), chromedp.CombinedOutput(endpoint))
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		log.Error("chrome start failed", "err", err)
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	p := &ChromeProvider{
		cfg:           cfg,
		emit:          emitter(onEvent),
		log:           log,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		endpoint:      endpoint,
		surfaces:      make(map[schema.TabID]*chromeSurface),
	}
	chromedp.ListenBrowser(browserCtx, p.onBrowserEvent)
	log.Info("chrome started", "headless", cfg.Headless, "exec_path", cfg.ExecPath)
	return p, nil
}

func allocatorOptions(cfg ChromeConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if strings.TrimSpace(cfg.ExecPath) != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, raw := range cfg.Flags {
		name, value, ok := parseFlag(raw)
		if !ok {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// devtoolsEndpoint watches Chrome's output for the remote debugging address.
// Writes never block and never fail since the allocator forwards output from
// its own goroutine.
type devtoolsEndpoint struct {
	mu      sync.Mutex
	host    string
	pending []byte
}

const devtoolsListening = "DevTools listening on"

func (e *devtoolsEndpoint) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.host != "" {
		return len(p), nil
	}
	e.pending = append(e.pending, p...)
	for {
		line, rest, found := bytes.Cut(e.pending, []byte("\n"))
		if !found {
			break
		}
		e.pending = rest
		if host := listeningHost(string(line)); host != "" {
			e.host = host
			e.pending = nil
			break
		}
	}
	if len(e.pending) > 64<<10 {
		e.pending = nil
	}
	return len(p), nil
}

// Host returns the host:port Chrome serves DevTools on, or "" when unknown.
func (e *devtoolsEndpoint) Host() string {
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host
}

func listeningHost(line string) string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), devtoolsListening)
	if !ok {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(rest))
	if err != nil {
		return ""
	}
	return u.Host
}

// inspectorURL is the DevTools frontend address for a single page target.
func inspectorURL(host string, id target.ID) string {
	return fmt.Sprintf("http://%s/devtools/inspector.html?ws=%s/devtools/page/%s", host, host, id)
}

func parseFlag(raw string) (string, any, bool) {
	raw = strings.TrimLeft(strings.TrimSpace(raw), "-")
	if raw == "" {
		return "", nil, false
	}
	name, value, found := strings.Cut(raw, "=")
	if !found {
		return name, true, true
	}
	switch strings.ToLower(value) {
	case "true":
		return name, true, true
	case "false":
		return name, false, true
	}
	return name, value, true
}

// Create opens a new target for the tab and navigates it to url.
func (p *ChromeProvider) Create(ctx context.Context, id schema.TabID, url string) (core.Surface, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errSurfaceClosed
	}
	p.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(p.browserCtx)
	s := &chromeSurface{
		id:       id,
		ctx:      tabCtx,
		cancel:   cancel,
		timeout:  p.cfg.ActionTimeout,
		emit:     p.emit,
		log:      logx.WithTab(ctx, p.log, id),
		provider: p,
	}
	chromedp.ListenTarget(tabCtx, s.onTargetEvent)
	// The first Run allocates the target and must not carry a deadline.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open target: %w", err)
	}
	p.mu.Lock()
	p.surfaces[id] = s
	p.mu.Unlock()
	if err := s.Load(ctx, url); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.log.Debug("surface created")
	return s, nil
}

// Close closes every target and shuts Chrome down.
func (p *ChromeProvider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	surfaces := make([]*chromeSurface, 0, len(p.surfaces))
	for _, s := range p.surfaces {
		surfaces = append(surfaces, s)
	}
	p.surfaces = make(map[schema.TabID]*chromeSurface)
	p.mu.Unlock()
	for _, s := range surfaces {
		s.cancel()
	}
	err := chromedp.Cancel(p.browserCtx)
	p.browserCancel()
	p.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn("chrome shutdown failed", "err", err)
		return err
	}
	p.log.Info("chrome stopped")
	return nil
}

func (p *ChromeProvider) forget(id schema.TabID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.surfaces, id)
}

// onBrowserEvent closes popup targets; the opener reports them as
// new-surface requests instead.
func (p *ChromeProvider) onBrowserEvent(ev any) {
	created, ok := ev.(*target.EventTargetCreated)
	if !ok || created.TargetInfo == nil || created.TargetInfo.OpenerID == "" {
		return
	}
	targetID := created.TargetInfo.TargetID
	go func() {
		c := chromedp.FromContext(p.browserCtx)
		if c == nil || c.Browser == nil {
			return
		}
		ctx, cancel := context.WithTimeout(p.browserCtx, p.cfg.ActionTimeout)
		defer cancel()
		if err := target.CloseTarget(targetID).Do(cdp.WithExecutor(ctx, c.Browser)); err != nil {
			p.log.Debug("popup close failed", "target", string(targetID), "err", err)
		}
	}()
}

type chromeSurface struct {
	id       schema.TabID
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	emit     EventFunc
	log      pslog.Logger
	provider *ChromeProvider

	// mainFrame is only touched on the target event loop.
	mainFrame cdp.FrameID

	mu       sync.Mutex
	devTools bool
}

// run executes actions on the tab target, bounded by the action timeout and
// the caller's context.
func (s *chromeSurface) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSurface) Load(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			s.log.Debug("surface navigate error", "url", url, "reason", errorText)
		}
		return nil
	}))
}

func (s *chromeSurface) Reload(ctx context.Context) error {
	return s.run(ctx, page.Reload())
}

func (s *chromeSurface) GoBack(ctx context.Context) error {
	return s.run(ctx, historyStep(-1))
}

func (s *chromeSurface) GoForward(ctx context.Context) error {
	return s.run(ctx, historyStep(1))
}

// historyStep moves through the navigation history; a step past either end is
// a no-op.
func historyStep(delta int64) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		current, entries, err := page.GetNavigationHistory().Do(ctx)
		if err != nil {
			return err
		}
		next := current + delta
		if next < 0 || next >= int64(len(entries)) {
			return nil
		}
		return page.NavigateToHistoryEntry(entries[next].ID).Do(ctx)
	})
}

func (s *chromeSurface) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (s *chromeSurface) SetZoom(ctx context.Context, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("invalid zoom factor %v", factor)
	}
	return s.run(ctx, emulation.SetPageScaleFactor(factor))
}

func (s *chromeSurface) SetMuted(ctx context.Context, muted bool) error {
	var applied bool
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf(muteScript, muted), &applied))
}

func (s *chromeSurface) Show(ctx context.Context) error {
	return s.run(ctx, page.BringToFront())
}

// Hide is a no-op: a target behind the front one is already hidden.
func (s *chromeSurface) Hide(context.Context) error {
	return nil
}

// ToggleDevTools reports the inspector address for this target when opening.
// Chrome cannot close an inspector attached from outside, so closing only
// clears the flag.
func (s *chromeSurface) ToggleDevTools(context.Context) (schema.DevToolsState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devTools {
		s.devTools = false
		return schema.DevToolsState{TabID: s.id}, nil
	}
	host := s.provider.endpoint.Host()
	if host == "" {
		return schema.DevToolsState{}, errors.New("devtools endpoint unknown")
	}
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return schema.DevToolsState{}, errSurfaceClosed
	}
	s.devTools = true
	return schema.DevToolsState{TabID: s.id, Open: true, InspectorURL: inspectorURL(host, c.Target.TargetID)}, nil
}

func (s *chromeSurface) Close() error {
	s.provider.forget(s.id)
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.log.Debug("surface destroyed")
	return nil
}

// onTargetEvent runs on the chromedp event loop and must not block.
func (s *chromeSurface) onTargetEvent(ev any) {
	switch ev := ev.(type) {
	case *page.EventFrameNavigated:
		if ev.Frame == nil || ev.Frame.ParentID != "" {
			return
		}
		s.mainFrame = ev.Frame.ID
		s.emit(schema.SurfaceEvent{
			Type:  schema.SurfaceNavigationCommitted,
			TabID: s.id,
			URL:   ev.Frame.URL + ev.Frame.URLFragment,
		})
	case *page.EventNavigatedWithinDocument:
		if s.mainFrame == "" || ev.FrameID != s.mainFrame {
			return
		}
		s.emit(schema.SurfaceEvent{
			Type:  schema.SurfaceNavigationCommitted,
			TabID: s.id,
			URL:   ev.URL,
		})
	case *page.EventLoadEventFired:
		go s.publishTitle()
	case *network.EventLoadingFailed:
		if ev.Type != network.ResourceTypeDocument || ev.Canceled {
			return
		}
		s.emit(schema.SurfaceEvent{
			Type:   schema.SurfaceLoadFailed,
			TabID:  s.id,
			Reason: ev.ErrorText,
		})
	case *page.EventWindowOpen:
		s.emit(schema.SurfaceEvent{
			Type:  schema.SurfaceNewRequested,
			TabID: s.id,
			URL:   ev.URL,
		})
	}
}

func (s *chromeSurface) publishTitle() {
	title, err := s.Title(s.ctx)
	if err != nil {
		if s.ctx.Err() == nil {
			s.log.Debug("surface title unavailable", "err", err)
		}
		return
	}
	s.emit(schema.SurfaceEvent{Type: schema.SurfaceTitleAvailable, TabID: s.id, Title: title})
}
