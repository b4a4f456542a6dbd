package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/nexus/internal/appconfig"
	"pkt.systems/nexus/internal/navigate"
	"pkt.systems/nexus/internal/settings"
	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

func newSettingsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change persisted browser settings",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.AddCommand(newSettingsShowCmd(&cfgPath))
	cmd.AddCommand(newSettingsSetCmd(&cfgPath))
	cmd.AddCommand(newSettingsPathCmd(&cfgPath))
	return cmd
}

func newSettingsShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettingsStore(*cfgPath, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			loaded, ok, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				loaded = schema.DefaultSettings()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "    ")
			return enc.Encode(loaded)
		},
	}
}

func newSettingsSetCmd(cfgPath *string) *cobra.Command {
	var engine string
	var homepage string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the search engine and homepage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettingsStore(*cfgPath, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			current, ok, err := store.Load(cmd.Context())
			if err != nil || !ok {
				current = schema.DefaultSettings()
			}
			if cmd.Flags().Changed("engine") {
				name, err := schema.NormalizeEngineName(engine)
				if err != nil {
					return fmt.Errorf("%w: %q", err, engine)
				}
				current.Engine = name
			}
			if cmd.Flags().Changed("homepage") {
				resolved, err := navigate.ResolveHomepage(homepage)
				if err != nil {
					return err
				}
				current.Homepage = resolved
			}
			if err := store.Save(cmd.Context(), current); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "settings saved to %s\n", store.Location())
			return err
		},
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "search engine ("+engineNames()+")")
	cmd.Flags().StringVar(&homepage, "homepage", "", "homepage address, empty for the engine home")
	return cmd
}

func newSettingsPathCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings document location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), settingsConfig(cfg).Path)
			return err
		},
	}
}

func openSettingsStore(cfgPath string, logger pslog.Logger) (settings.Store, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return settings.Open(settingsConfig(cfg), logger)
}

func settingsConfig(cfg appconfig.Config) settings.Config {
	backend := settings.Backend(strings.ToLower(strings.TrimSpace(cfg.Settings.Backend)))
	path := cfg.Settings.Path
	if strings.TrimSpace(path) == "" {
		path = settings.DefaultPath(cfg.StateDir, backend)
	}
	return settings.Config{Backend: backend, Path: path}
}

func engineNames() string {
	engines := schema.AvailableEngines()
	names := make([]string, 0, len(engines))
	for _, engine := range engines {
		names = append(names, string(engine.Name))
	}
	return strings.Join(names, "|")
}
