package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/internal/hostbridge"
	"pkt.systems/nexus/internal/logx"
	"pkt.systems/nexus/internal/navigate"
	"pkt.systems/nexus/internal/settings"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// Publisher sends outbound notifications to the host.
type Publisher interface {
	Publish(channel schema.Channel, payload any) error
}

// Config tunes shell behaviour.
type Config struct {
	// ZoomStep is the factor delta of zoom-in and zoom-out.
	ZoomStep float64
}

// Deps captures the shell dependencies. Tabs and Settings are required.
type Deps struct {
	Tabs      core.TabManager
	Settings  settings.Store
	Publisher Publisher
	Logger    pslog.Logger
}

// Shell routes bridge commands into the tab manager, the navigation resolver
// and the settings store.
type Shell struct {
	cfg   Config
	tabs  core.TabManager
	store settings.Store
	pub   Publisher
	log   pslog.Logger

	mu      sync.Mutex
	current *schema.Settings
	draft   *schema.Settings
}

// New constructs a Shell.
func New(cfg Config, deps Deps) (*Shell, error) {
	if deps.Tabs == nil {
		return nil, errors.New("tab manager is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("settings store is required")
	}
	if cfg.ZoomStep <= 0 {
		cfg.ZoomStep = schema.DefaultZoomStep
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Shell{
		cfg:   cfg,
		tabs:  deps.Tabs,
		store: deps.Settings,
		pub:   deps.Publisher,
		log:   logger,
	}, nil
}

// Start loads persisted settings, announces them and opens the first tab on
// the effective homepage. Missing or corrupt settings fall back to defaults.
func (s *Shell) Start(ctx context.Context) error {
	loaded, ok, err := s.store.Load(ctx)
	switch {
	case err != nil:
		s.log.Warn("settings unusable, using defaults", "err", err, "path", s.store.Location())
	case ok:
		s.mu.Lock()
		s.current = &loaded
		s.mu.Unlock()
	default:
		s.log.Info("settings not found, using defaults", "path", s.store.Location())
	}
	s.publishSettings(ctx)
	effective := s.Effective()
	if _, err := s.tabs.Add(ctx, effective.HomeTitle(), effective.HomeURL()); err != nil {
		s.log.Error("first tab failed", "err", err)
		return fmt.Errorf("open first tab: %w", err)
	}
	s.log.Info("shell started", "engine", effective.Engine, "home", effective.HomeURL())
	return nil
}

// Effective returns the persisted settings, or the defaults when none exist.
func (s *Shell) Effective() schema.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return *s.current
	}
	return schema.DefaultSettings()
}

// Persisted returns the settings last loaded or saved.
func (s *Shell) Persisted() (schema.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return schema.Settings{}, false
	}
	return *s.current, true
}

// Draft returns the settings being edited, if any.
func (s *Shell) Draft() (schema.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return schema.Settings{}, false
	}
	return *s.draft, true
}

// HandleMessage applies one bridge message. It is the hostbridge.Handler of
// the dispatch loop.
func (s *Shell) HandleMessage(ctx context.Context, msg hostbridge.Message) error {
	log := logx.WithChannel(ctx, s.log, msg.Channel)
	log.Debug("shell command", "id", msg.ID)
	switch msg.Channel {
	case schema.ChannelNewTab:
		effective := s.Effective()
		_, err := s.tabs.Add(ctx, effective.HomeTitle(), effective.HomeURL())
		return err
	case schema.ChannelCloseTab:
		active, ok := s.tabs.Active()
		if !ok {
			return schema.ErrNoActiveTab
		}
		_, err := s.tabs.Close(ctx, active.ID)
		return err
	case schema.ChannelReloadTab:
		return s.tabs.Reload(ctx)
	case schema.ChannelGoBack:
		return s.tabs.GoBack(ctx)
	case schema.ChannelGoForward:
		return s.tabs.GoForward(ctx)
	case schema.ChannelNextTab:
		return s.tabs.Next(ctx)
	case schema.ChannelPreviousTab:
		return s.tabs.Previous(ctx)
	case schema.ChannelZoomIn:
		return s.tabs.SetZoom(ctx, s.cfg.ZoomStep)
	case schema.ChannelZoomOut:
		return s.tabs.SetZoom(ctx, -s.cfg.ZoomStep)
	case schema.ChannelZoomReset:
		return s.tabs.ResetZoom(ctx)
	case schema.ChannelToggleMute:
		return s.tabs.ToggleMute(ctx)
	case schema.ChannelDevTools:
		state, err := s.tabs.ToggleDevTools(ctx)
		if err != nil {
			return err
		}
		s.publish(ctx, schema.ChannelDevToolsState, state)
		return nil
	case schema.ChannelNavigate:
		var req schema.NavigateRequest
		if err := msg.Decode(&req); err != nil {
			return err
		}
		return s.navigate(ctx, log, req.Input)
	case schema.ChannelActivateTab:
		var req schema.ActivateTabRequest
		if err := msg.Decode(&req); err != nil {
			return err
		}
		return s.tabs.Activate(ctx, req.ID)
	case schema.ChannelOpenSettings:
		s.publishSettings(ctx)
		return nil
	case schema.ChannelEditSettings:
		var req schema.SettingsRequest
		if err := msg.Decode(&req); err != nil {
			return err
		}
		return s.editSettings(log, req)
	case schema.ChannelSaveSettings:
		return s.saveSettings(ctx, log, msg)
	case schema.ChannelCancelSettings:
		s.mu.Lock()
		s.draft = nil
		s.mu.Unlock()
		log.Debug("settings draft discarded")
		s.publishSettings(ctx)
		return nil
	case schema.ChannelSurfaceEvent:
		var event schema.SurfaceEvent
		if err := msg.Decode(&event); err != nil {
			return err
		}
		if event.Type == schema.SurfaceNewRequested {
			s.publish(ctx, schema.ChannelNewSurfaceRequested, schema.NewSurfaceNotification{URL: event.URL})
		}
		return s.tabs.HandleSurfaceEvent(ctx, event)
	default:
		log.Warn("shell command rejected", "reason", "unknown channel")
		return fmt.Errorf("%w: %s", schema.ErrUnknownChannel, msg.Channel)
	}
}

func (s *Shell) navigate(ctx context.Context, log pslog.Logger, input string) error {
	if strings.TrimSpace(input) == "" {
		log.Debug("navigate ignored", "reason", "empty input")
		return nil
	}
	res, err := navigate.Classify(input)
	if err != nil {
		if errors.Is(err, schema.ErrInvalidAddress) {
			s.publish(ctx, schema.ChannelNavigationRejected, schema.NavigationRejectedNotification{
				Input:  input,
				Reason: err.Error(),
			})
		}
		return err
	}
	target := res.URL
	if !res.IsAddress() {
		target = navigate.BuildSearchURL(s.Effective().Engine, res.Term)
		log.Debug("navigate search", "term_len", len(res.Term))
	}
	return s.tabs.Load(ctx, target)
}

func (s *Shell) editSettings(log pslog.Logger, req schema.SettingsRequest) error {
	engine, err := s.engineOrCurrent(req.Engine)
	if err != nil {
		return err
	}
	draft := schema.Settings{Engine: engine, Homepage: req.Homepage}
	s.mu.Lock()
	s.draft = &draft
	s.mu.Unlock()
	log.Debug("settings draft updated", "engine", engine)
	return nil
}

// saveSettings persists the request payload, or the draft when the payload is
// empty, then announces the result.
func (s *Shell) saveSettings(ctx context.Context, log pslog.Logger, msg hostbridge.Message) error {
	var req schema.SettingsRequest
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&req); err != nil {
			return err
		}
	} else {
		source, ok := s.Draft()
		if !ok {
			source = s.Effective()
		}
		req = schema.SettingsRequest{Engine: string(source.Engine), Homepage: source.Homepage}
	}
	engine, err := s.engineOrCurrent(req.Engine)
	if err != nil {
		return err
	}
	homepage, err := navigate.ResolveHomepage(req.Homepage)
	if err != nil {
		log.Warn("settings save rejected", "err", err)
		return err
	}
	next := schema.Settings{Engine: engine, Homepage: homepage}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.mu.Lock()
	s.current = &next
	s.draft = nil
	s.mu.Unlock()
	log.Info("settings saved", "engine", engine, "homepage", homepage)
	s.publishSettings(ctx)
	return nil
}

func (s *Shell) engineOrCurrent(name string) (schema.EngineName, error) {
	if strings.TrimSpace(name) == "" {
		return s.Effective().Engine, nil
	}
	engine, err := schema.NormalizeEngineName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}
	return engine, nil
}

func (s *Shell) publishSettings(ctx context.Context) {
	s.mu.Lock()
	var note schema.SettingsNotification
	if s.current != nil {
		copied := *s.current
		note.Settings = &copied
	}
	s.mu.Unlock()
	s.publish(ctx, schema.ChannelBrowserSettings, note)
}

func (s *Shell) publish(ctx context.Context, channel schema.Channel, payload any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(channel, payload); err != nil {
		logx.WithChannel(ctx, s.log, channel).Warn("shell publish failed", "err", err)
	}
}
