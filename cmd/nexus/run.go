package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pkt.systems/nexus/core"
	"pkt.systems/nexus/internal/appconfig"
	"pkt.systems/nexus/internal/hostbridge"
	"pkt.systems/nexus/internal/settings"
	"pkt.systems/nexus/internal/shell"
	"pkt.systems/nexus/internal/surface"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var driver string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the browser shell with an interactive console",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if driver != "" {
				cfg.Surface.Driver = driver
			}
			return runShell(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&driver, "driver", "", "surface driver override (headless|chromedp)")
	return cmd
}

// app holds the wired components of a running shell.
type app struct {
	store    settings.Store
	bridge   *hostbridge.Bridge
	provider surface.Provider
	tabs     core.TabManager
	shell    *shell.Shell
}

func newApp(ctx context.Context, cfg appconfig.Config, logger pslog.Logger) (*app, error) {
	store, err := settings.Open(settingsConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	bridge := hostbridge.New(hostbridge.Config{
		QueueDepth:   cfg.Bridge.QueueDepth,
		DedupeWindow: cfg.Bridge.DedupeWindow,
	}, logger)
	provider, err := surface.Open(ctx, surfaceConfig(cfg), shell.SurfaceEvents(ctx, bridge, logger), logger)
	if err != nil {
		_ = bridge.Close()
		_ = store.Close()
		return nil, err
	}
	a := &app{store: store, bridge: bridge, provider: provider}
	tabs, err := core.NewTabManager(schema.TabsConfig{}, core.TabManagerDeps{
		SurfaceProvider: provider,
		EventSink:       core.Fanout{shell.TabEvents(bridge, logger), shell.TabLog(logger)},
		Logger:          logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.tabs = tabs
	sh, err := shell.New(shell.Config{ZoomStep: cfg.Tabs.ZoomStep}, shell.Deps{
		Tabs:      tabs,
		Settings:  store,
		Publisher: bridge,
		Logger:    logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.shell = sh
	return a, nil
}

// Close releases the bridge, the surfaces and the settings store.
func (a *app) Close() error {
	return errors.Join(a.bridge.Close(), a.provider.Close(), a.store.Close())
}

func surfaceConfig(cfg appconfig.Config) surface.Config {
	return surface.Config{
		Driver: surface.Driver(cfg.Surface.Driver),
		Chrome: surface.ChromeConfig{
			Headless:      cfg.Surface.Chrome.Headless,
			ExecPath:      cfg.Surface.Chrome.ExecPath,
			Flags:         cfg.Surface.Chrome.Flags,
			ActionTimeout: time.Duration(cfg.Surface.Chrome.ActionTimeoutSeconds) * time.Second,
		},
	}
}

func runShell(ctx context.Context, cfg appconfig.Config, in io.Reader, out io.Writer, logger pslog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown incomplete", "err", err)
		}
	}()

	w := &lockedWriter{w: out}
	notes, unsubscribe := a.bridge.Subscribe()
	defer unsubscribe()

	if err := a.shell.Start(ctx); err != nil {
		return err
	}
	logger.Info("shell running", "driver", cfg.Surface.Driver, "settings", a.store.Location())

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.bridge.Serve(gctx, a.shell.HandleMessage)
	})
	group.Go(func() error {
		return printNotifications(gctx, notes, w)
	})
	group.Go(func() error {
		c := &console{in: in, out: w, sender: a.bridge, tabs: a.tabs, log: logger}
		return c.Run(gctx)
	})
	err = group.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printNotifications(ctx context.Context, notes <-chan hostbridge.Notification, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case note, ok := <-notes:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(w, formatNotification(note)); err != nil {
				return err
			}
		}
	}
}

func formatNotification(note hostbridge.Notification) string {
	payload := strings.TrimSpace(string(note.Payload))
	return fmt.Sprintf("<< %s %s", note.Channel, payload)
}
