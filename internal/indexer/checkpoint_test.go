package indexer

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileCheckpointStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileCheckpointStore(filepath.Join(t.TempDir(), "state", "checkpoint.json"))

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty checkpoint, ok=%v err=%v", ok, err)
	}

	if err := store.Save(ctx, 18446744073709551615); err != nil {
		t.Fatalf("save: %v", err)
	}

	version, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load failed, ok=%v err=%v", ok, err)
	}
	if version != 18446744073709551615 {
		t.Fatalf("version mismatch: %d", version)
	}
}

func TestFileCheckpointStoreDirectory(t *testing.T) {
	store := NewFileCheckpointStore(t.TempDir())
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

type memState map[string]uint64

func (m memState) LoadState(_ context.Context, name string) (uint64, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func (m memState) SaveState(_ context.Context, name string, version uint64) error {
	m[name] = version
	return nil
}

func TestDBCheckpointStore(t *testing.T) {
	ctx := context.Background()
	state := memState{}
	store := &DBCheckpointStore{Store: state, Name: "event_processor"}

	if err := store.Save(ctx, 42); err != nil {
		t.Fatalf("save: %v", err)
	}
	version, ok, err := store.Load(ctx)
	if err != nil || !ok || version != 42 {
		t.Fatalf("load mismatch: %d %v %v", version, ok, err)
	}
	if state["event_processor"] != 42 {
		t.Fatalf("state not keyed by name: %v", state)
	}
}
