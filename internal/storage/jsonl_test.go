package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"eventScope/internal/model"
)

func TestJsonlStorageCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	store := NewJsonlStorage(path)

	err := store.InTx(context.Background(), func(ctx context.Context, w EventWriter) error {
		return WriteChunks(ctx, w, makeEvents(5), 2)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var lines int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev model.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 5 {
		t.Fatalf("line count mismatch: %d", lines)
	}
}

func TestJsonlStorageRollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	store := NewJsonlStorage(path)

	err := store.InTx(context.Background(), func(ctx context.Context, w EventWriter) error {
		if err := w.InsertEvents(ctx, makeEvents(3)); err != nil {
			return err
		}
		return errors.New("chunk failed")
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("output should not exist after rollback, stat err: %v", err)
	}
}
