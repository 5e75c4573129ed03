package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"eventScope/internal/model"
)

// JsonlStorage writes events to a JSONL file. A transaction stages its
// chunks in memory and appends them with a single write on commit.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// InTx implements EventStore.
func (s *JsonlStorage) InTx(ctx context.Context, fn func(ctx context.Context, w EventWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &jsonlTx{}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx.buf.Bytes())
}

func (s *JsonlStorage) commit(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write events: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync output: %w", err)
	}
	return file.Close()
}

type jsonlTx struct {
	buf bytes.Buffer
}

func (tx *jsonlTx) InsertEvents(_ context.Context, events []model.Event) error {
	for _, event := range events {
		line, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		tx.buf.Write(line)
		tx.buf.WriteByte('\n')
	}
	return nil
}
