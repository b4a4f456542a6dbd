package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"pkt.systems/nexus/schema"
	"pkt.systems/pslog"
)

const (
	boltBucketSettings = "settings"
	boltKeyDocument    = "browser-settings"
)

// BoltStore keeps the settings document under a fixed key in a bbolt database.
type BoltStore struct {
	mu      sync.Mutex
	path    string
	storage *bbolt.DB
	log     pslog.Logger
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	return NewBoltStoreWithLogger(path, nil)
}

// NewBoltStoreWithLogger opens the database with logging.
func NewBoltStoreWithLogger(path string, logger pslog.Logger) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	instance, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketSettings))
		return err
	}); err != nil {
		_ = instance.Close()
		return nil, err
	}
	if logger != nil {
		logger = logger.With("settings_path", path, "settings_backend", BackendBolt)
	}
	return &BoltStore{path: path, storage: instance, log: logger}, nil
}

// Location returns the database path.
func (s *BoltStore) Location() string {
	return s.path
}

// Load reads the settings document from the database.
func (s *BoltStore) Load(ctx context.Context) (schema.Settings, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var data []byte
	if err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketSettings))
		if bucket == nil {
			return nil
		}
		if value := bucket.Get([]byte(boltKeyDocument)); value != nil {
			data = append([]byte(nil), value...)
		}
		return nil
	}); err != nil {
		if s.log != nil {
			s.log.Warn("settings load failed", "err", err)
		}
		return schema.Settings{}, false, err
	}
	if data == nil {
		if s.log != nil {
			s.log.Debug("settings load miss")
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

// Save replaces the settings document in a single update transaction.
func (s *BoltStore) Save(ctx context.Context, settings schema.Settings) error {
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
	if err := s.storage.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(boltBucketSettings))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(boltKeyDocument), data)
	}); err != nil {
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

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.storage.Close()
}
