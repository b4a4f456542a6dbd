package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"pkt.systems/nexus/schema"
)

func TestBoltStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.bolt")
	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSettings)).Put([]byte(boltKeyDocument), []byte("{not-json"))
	}); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	if _, _, err := store.Load(context.Background()); !errors.Is(err, schema.ErrSettingsCorrupt) {
		t.Fatalf("expected ErrSettingsCorrupt, got %v", err)
	}
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.bolt")
	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	want := schema.Settings{Engine: schema.EngineBing, Homepage: "https://example.org"}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, ok, err := reopened.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load after reopen: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
