package settings

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

// FileStore keeps the settings document in a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  pslog.Logger
}

// NewFileStore constructs a file store writing to path.
func NewFileStore(path string) (*FileStore, error) {
	return NewFileStoreWithLogger(path, nil)
}

// NewFileStoreWithLogger constructs a file store with logging.
func NewFileStoreWithLogger(path string, logger pslog.Logger) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("settings_path", path)
	}
	return &FileStore{path: path, log: logger}, nil
}

// Location returns the document path.
func (s *FileStore) Location() string {
	return s.path
}

// Load reads the settings document from disk.
func (s *FileStore) Load(ctx context.Context) (schema.Settings, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("settings load miss")
			}
			return schema.Settings{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("settings load failed", "err", err)
		}
		return schema.Settings{}, false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if s.log != nil {
			s.log.Debug("settings load miss", "reason", "empty document")
		}
		return schema.Settings{}, false, nil
	}
	settings, err := decode(data)
	if err != nil {
		if s.log != nil {
			s.log.Warn("settings load failed", "err", err)
		}
		return schema.Settings{}, false, err
	}
	if s.log != nil {
		s.log.Debug("settings load ok", "engine", settings.Engine)
	}
	return settings, true, nil
}

// Save replaces the settings document on disk.
func (s *FileStore) Save(ctx context.Context, settings schema.Settings) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := encode(settings)
	if err != nil {
		if s.log != nil {
			s.log.Warn("settings save failed", "err", err)
		}
		return err
	}
	if err := s.writeAtomic(data); err != nil {
		if s.log != nil {
			s.log.Warn("settings save failed", "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("settings save ok", "engine", settings.Engine)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
