// Package settings persists the browser settings document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// DocumentName is the file name of the settings document in the state dir.
const DocumentName = "nexusSettings.json"

// Backend selects where the settings document lives.
type Backend string

const (
	// BackendFile stores the document as a JSON file.
	BackendFile Backend = "file"
	// BackendBolt stores the document under a fixed key in a bbolt database.
	BackendBolt Backend = "bolt"
)

// Store loads and saves the settings document.
type Store interface {
	// Load returns ok == false with a nil error when nothing was saved yet.
	Load(ctx context.Context) (schema.Settings, bool, error)
	Save(ctx context.Context, settings schema.Settings) error
	Location() string
	Close() error
}

// Config selects and locates the backend.
type Config struct {
	Backend Backend
	// Path is the JSON file for BackendFile or the database file for BackendBolt.
	Path string
}

// Open constructs the store described by cfg.
func Open(cfg Config, logger pslog.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("settings path is required")
	}
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStoreWithLogger(cfg.Path, logger)
	case BackendBolt:
		return NewBoltStoreWithLogger(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported settings backend %q", cfg.Backend)
	}
}

// DefaultPath returns the document location for backend inside stateDir.
func DefaultPath(stateDir string, backend Backend) string {
	if backend == BackendBolt {
		return filepath.Join(stateDir, "nexus.bolt")
	}
	return filepath.Join(stateDir, DocumentName)
}

func encode(settings schema.Settings) ([]byte, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decode(data []byte) (schema.Settings, error) {
	var settings schema.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return schema.Settings{}, fmt.Errorf("%w: %v", schema.ErrSettingsCorrupt, err)
	}
	engine, err := schema.NormalizeEngineName(string(settings.Engine))
	if err != nil {
		return schema.Settings{}, fmt.Errorf("%w: engine %q", schema.ErrSettingsCorrupt, settings.Engine)
	}
	settings.Engine = engine
	return settings, nil
}
